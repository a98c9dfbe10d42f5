package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orchestrator "github.com/tanpawarit/recruiter-chat/agent/agents/orchestrator"
	runnerx "github.com/tanpawarit/recruiter-chat/agent/runner"
	statex "github.com/tanpawarit/recruiter-chat/agent/state"
	streamx "github.com/tanpawarit/recruiter-chat/agent/stream"
	metricsx "github.com/tanpawarit/recruiter-chat/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// scriptedEngine streams events and records every input it was given.
type scriptedEngine struct {
	mu     sync.Mutex
	events []runnerx.Event
	inputs [][]*schema.Message
}

func (e *scriptedEngine) Run(ctx context.Context, input []*schema.Message) (runnerx.Result, error) {
	return runnerx.Result{}, errors.New("not scripted")
}

func (e *scriptedEngine) RunStreamed(ctx context.Context, input []*schema.Message) <-chan runnerx.Event {
	e.mu.Lock()
	e.inputs = append(e.inputs, input)
	e.mu.Unlock()

	out := make(chan runnerx.Event)
	go func() {
		defer close(out)
		for _, ev := range e.events {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (e *scriptedEngine) lastInput() []*schema.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inputs[len(e.inputs)-1]
}

type testServer struct {
	router   *gin.Engine
	store    *statex.MemoryStore
	engine   *scriptedEngine
	registry *prometheus.Registry
}

func newTestServer(t *testing.T, events ...runnerx.Event) *testServer {
	t.Helper()

	store := statex.NewMemoryStore()
	engine := &scriptedEngine{events: events}
	registry := prometheus.NewRegistry()
	m := metricsx.NewChat(registry)

	svc, err := orchestrator.New(store, engine, orchestrator.Config{}, orchestrator.WithMetrics(m))
	require.NoError(t, err)

	return &testServer{
		router:   NewRouter(svc, store, WithMetrics(m, registry)),
		store:    store,
		engine:   engine,
		registry: registry,
	}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) chat(t *testing.T, body string) []streamx.Envelope {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/chat", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	envelopes, err := streamx.ReadAll(rec.Body)
	require.NoError(t, err, "stream must end with the sentinel")
	return envelopes
}

func countType(envelopes []streamx.Envelope, kind streamx.EnvelopeType) int {
	n := 0
	for _, env := range envelopes {
		if env.Type == kind {
			n++
		}
	}
	return n
}

var helloReply = []runnerx.Event{
	runnerx.TextDelta{Text: "Hi! "},
	runnerx.TextDelta{Text: "How can I help?"},
	runnerx.MessageFinalized{Ref: "Master Triage"},
}

func TestChatFirstTurnEndsWithFinalResult(t *testing.T) {
	s := newTestServer(t, helloReply...)

	envelopes := s.chat(t, `{"message":"Hello","sessionId":"s1"}`)

	require.NotEmpty(t, envelopes)
	assert.Equal(t, 2, countType(envelopes, streamx.TypeTextDelta))
	assert.Equal(t, 1, countType(envelopes, streamx.TypeFinalResult))
	assert.Zero(t, countType(envelopes, streamx.TypeError))

	final := envelopes[len(envelopes)-1]
	assert.Equal(t, streamx.TypeFinalResult, final.Type)
	assert.Equal(t, "s1", final.SessionID)
	assert.Equal(t, "Hi! How can I help?", final.FinalOutput)
	require.Len(t, final.History, 2)
	assert.Equal(t, schema.User, final.History[0].Role)
	assert.Equal(t, "Hello", final.History[0].Content)
	assert.Equal(t, schema.Assistant, final.History[1].Role)

	assert.Equal(t, 2, len(s.store.GetHistory("s1")))
	series, err := testutil.GatherAndCount(s.registry, "chat_turns_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}

func TestChatSecondTurnSeesPersistedTranscript(t *testing.T) {
	s := newTestServer(t, helloReply...)

	s.chat(t, `{"message":"Hello","sessionId":"s1"}`)
	s.chat(t, `{"message":"Any jobs?","sessionId":"s1"}`)

	input := s.engine.lastInput()
	require.Len(t, input, 3)
	assert.Equal(t, "Hello", input[0].Content)
	assert.Equal(t, schema.Assistant, input[1].Role)
	assert.Equal(t, "Any jobs?", input[2].Content)
}

func TestChatExplicitEmptyHistoryOverridesStore(t *testing.T) {
	s := newTestServer(t, helloReply...)
	s.store.UpdateSession("s1", []*schema.Message{
		schema.UserMessage("one"), schema.AssistantMessage("two", nil),
		schema.UserMessage("three"), schema.AssistantMessage("four", nil),
	})

	s.chat(t, `{"message":"fresh start","sessionId":"s1","history":[]}`)

	assert.Len(t, s.engine.lastInput(), 1)
}

func TestChatExplicitHistoryIsUsed(t *testing.T) {
	s := newTestServer(t, helloReply...)
	s.store.UpdateSession("s1", []*schema.Message{schema.UserMessage("stored")})

	s.chat(t, `{"message":"next","sessionId":"s1","history":[{"role":"user","content":"client"}]}`)

	input := s.engine.lastInput()
	require.Len(t, input, 2)
	assert.Equal(t, "client", input[0].Content)
}

func TestChatNullHistoryUsesStore(t *testing.T) {
	s := newTestServer(t, helloReply...)
	s.store.UpdateSession("s1", []*schema.Message{schema.UserMessage("stored")})

	s.chat(t, `{"message":"next","sessionId":"s1","history":null}`)

	assert.Len(t, s.engine.lastInput(), 2)
}

func TestChatFailureMidStream(t *testing.T) {
	s := newTestServer(t,
		runnerx.TextDelta{Text: "Let me "},
		runnerx.Failure{Err: errors.New("provider exploded")},
	)

	envelopes := s.chat(t, `{"message":"Hello","sessionId":"s1"}`)

	assert.Equal(t, 1, countType(envelopes, streamx.TypeError))
	assert.Zero(t, countType(envelopes, streamx.TypeFinalResult))
	assert.Equal(t, streamx.TypeError, envelopes[len(envelopes)-1].Type)
	assert.Empty(t, s.store.GetHistory("s1"))
}

func TestChatDefaultSessionID(t *testing.T) {
	s := newTestServer(t, helloReply...)

	envelopes := s.chat(t, `{"message":"Hello"}`)

	assert.Equal(t, orchestrator.DefaultSessionID, envelopes[len(envelopes)-1].SessionID)
}

func TestChatRejectsBadRequests(t *testing.T) {
	s := newTestServer(t, helloReply...)

	rec := s.do(http.MethodPost, "/api/chat", `{"sessionId":"s1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Message is required", rec.Body.String())

	rec = s.do(http.MethodPost, "/api/chat", `{"message":"   ","sessionId":"s1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Message is required", rec.Body.String())

	rec = s.do(http.MethodPost, "/api/chat", `{"message":`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", rec.Body.String())

	rec = s.do(http.MethodPost, "/api/chat", `{"message":"hi","history":"nope"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Empty(t, s.engine.inputs)
}

func TestGetConversation(t *testing.T) {
	s := newTestServer(t)
	s.store.UpdateSession("s1", []*schema.Message{schema.UserMessage("hi"), schema.AssistantMessage("hello", nil)})

	rec := s.do(http.MethodGet, "/api/conversation?sessionId=s1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body conversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "s1", body.SessionID)
	assert.Len(t, body.History, 2)
	assert.Equal(t, 2, body.SessionInfo.MessageCount)
	assert.False(t, body.SessionInfo.CreatedAt.IsZero())
}

func TestGetConversationUnknownCreatesEmptySession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/conversation?sessionId=new", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body conversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.History)
	assert.Equal(t, body.SessionInfo.CreatedAt, body.SessionInfo.LastUpdated)
	assert.Equal(t, 1, s.store.Len())
}

func TestConversationRequiresSessionID(t *testing.T) {
	s := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete, http.MethodPut} {
		rec := s.do(method, "/api/conversation", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, method)
		assert.JSONEq(t, `{"error":"sessionId is required"}`, rec.Body.String(), method)
	}
}

func TestDeleteConversationClears(t *testing.T) {
	s := newTestServer(t)
	s.store.UpdateSession("s1", []*schema.Message{schema.UserMessage("hi")})
	created := s.store.GetOrCreateSession("s1").CreatedAt

	rec := s.do(http.MethodDelete, "/api/conversation?sessionId=s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Conversation history cleared","sessionId":"s1"}`, rec.Body.String())

	assert.Empty(t, s.store.GetHistory("s1"))
	assert.Equal(t, created, s.store.GetOrCreateSession("s1").CreatedAt)
}

func TestPutConversationCleanupOld(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	store := statex.NewMemoryStore(statex.WithClock(func() time.Time { return clock }))
	router := NewRouter(nil, store)

	store.UpdateSession("old", []*schema.Message{schema.UserMessage("a")})
	clock = now.Add(3 * time.Hour)
	store.UpdateSession("recent", []*schema.Message{schema.UserMessage("b")})

	req := httptest.NewRequest(http.MethodPut, "/api/conversation?sessionId=x&action=cleanup-old", strings.NewReader(`{"hoursOld":2.5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Cleaned up sessions older than 2.5 hours","removed":1}`, rec.Body.String())
	assert.Empty(t, store.GetHistory("old"))
	assert.Len(t, store.GetHistory("recent"), 1)
}

func TestPutConversationDefaultsAndErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPut, "/api/conversation?sessionId=s1&action=cleanup-old", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "older than 24 hours")

	rec = s.do(http.MethodPut, "/api/conversation?sessionId=s1&action=archive", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid action"}`, rec.Body.String())

	rec = s.do(http.MethodPut, "/api/conversation?sessionId=s1&action=cleanup-old", `{"hoursOld":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/conversation?sessionId=s1&action=cleanup-old", `{"hoursOld":`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, helloReply...)
	s.chat(t, `{"message":"Hello","sessionId":"s1"}`)

	rec := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `chat_envelopes_total{type="final_result"} 1`)
	assert.Contains(t, rec.Body.String(), `chat_turns_total{status="ok"} 1`)
}

func TestListConversations(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	store := statex.NewMemoryStore(statex.WithClock(func() time.Time { return clock }))
	router := NewRouter(nil, store)

	store.UpdateSession("first", []*schema.Message{schema.UserMessage("a"), schema.AssistantMessage("b", nil)})
	clock = now.Add(time.Minute)
	store.GetOrCreateSession("second")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sessions []struct {
			SessionID    string    `json:"sessionId"`
			CreatedAt    time.Time `json:"createdAt"`
			MessageCount int       `json:"messageCount"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Sessions, 2)
	assert.Equal(t, "first", body.Sessions[0].SessionID)
	assert.Equal(t, 2, body.Sessions[0].MessageCount)
	assert.Equal(t, "second", body.Sessions[1].SessionID)
	assert.Zero(t, body.Sessions[1].MessageCount)
	assert.True(t, body.Sessions[0].CreatedAt.Before(body.Sessions[1].CreatedAt))
}

func TestDeleteConversationWaitsForTurn(t *testing.T) {
	s := newTestServer(t)
	s.store.UpdateSession("s1", []*schema.Message{schema.UserMessage("hi")})

	unlock, err := s.store.Lock(context.Background(), "s1")
	require.NoError(t, err)

	done := make(chan int)
	go func() {
		done <- s.do(http.MethodDelete, "/api/conversation?sessionId=s1", "").Code
	}()

	select {
	case <-done:
		t.Fatal("clear finished while a turn held the session")
	case <-time.After(50 * time.Millisecond):
	}

	// The in-flight turn writes back before releasing the session.
	s.store.UpdateSession("s1", []*schema.Message{schema.UserMessage("hi"), schema.AssistantMessage("hello", nil)})
	unlock()

	select {
	case code := <-done:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(2 * time.Second):
		t.Fatal("clear did not finish after the turn released the session")
	}
	assert.Empty(t, s.store.GetHistory("s1"))
}

func TestDeleteConversationAbandoned(t *testing.T) {
	s := newTestServer(t)
	unlock, err := s.store.Lock(context.Background(), "s1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodDelete, "/api/conversation?sessionId=s1", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to clear conversation"}`, rec.Body.String())
}
