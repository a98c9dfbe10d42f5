package contract

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
	statex "github.com/tanpawarit/recruiter-chat/agent/state"
)

// SessionStore is the conversation memory used by the turn pipeline and the
// conversation admin endpoints.
type SessionStore interface {
	CreateSession(id string) statex.Session
	GetOrCreateSession(id string) statex.Session
	UpdateSession(id string, transcript []*schema.Message)
	GetHistory(id string) []*schema.Message
	ClearSession(id string)
	DeleteSession(id string)
	Sweep(maxAge time.Duration) int
	Sessions() []statex.Session
	Lock(ctx context.Context, id string) (func(), error)
}
