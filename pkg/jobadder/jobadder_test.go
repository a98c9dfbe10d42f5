package jobadder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for empty base url")
	}
	if _, err := NewClient(Config{BaseURL: "not a url"}); err == nil {
		t.Fatal("expected error for invalid base url")
	}
}

func TestClientGetSendsBearerAndQuery(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"jobId":1}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL + "/v2/", APIAccessToken: " tok "}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	body, err := client.Get(context.Background(), "/jobs", url.Values{
		"jobTitle": {"engineer"},
		"limit":    {""},
	})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(body) != `{"items":[{"jobId":1}]}` {
		t.Fatalf("Get() body = %s", body)
	}
	if gotPath != "/v2/jobs" {
		t.Fatalf("path = %q, want /v2/jobs", gotPath)
	}
	if gotQuery != "jobTitle=engineer" {
		t.Fatalf("query = %q, want jobTitle=engineer", gotQuery)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("Authorization = %q, want Bearer tok", gotAuth)
	}
}

func TestClientGetNon2xx(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := MustNew(Config{BaseURL: server.URL, APIAccessToken: "tok"})
	_, err := client.Get(context.Background(), "candidates/7", nil)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("Get() error = %v, want ErrUpstream", err)
	}
}
