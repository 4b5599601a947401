package transport

import (
	"context"

	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/llm"
)

// Local calls a transport in-process, tagging every call with a session
// id so the tutor and the request log can attribute it.
type Local struct {
	next      chat.Transport
	sessionID string
}

// NewLocal wraps next, usually a *tutor.Service.
func NewLocal(next chat.Transport, sessionID string) *Local {
	return &Local{next: next, sessionID: sessionID}
}

func (l *Local) Send(ctx context.Context, tab chat.Tab, content string) (*chat.Reply, error) {
	return l.next.Send(llm.WithSession(ctx, l.sessionID), tab, content)
}
