package chat

import (
	"time"

	conv "github.com/aitutor/tutorchat/internal/chat"
)

// outcomeMsg carries a finished transport call back to the UI goroutine,
// where it is settled against the session.
type outcomeMsg struct {
	Outcome conv.Outcome
}

// autoRetryMsg fires once the automatic retry delay for a failure elapsed.
type autoRetryMsg struct {
	Tab       conv.Tab
	MessageID string
}

// spinnerTickMsg animates the composing indicator.
type spinnerTickMsg time.Time

func (outcomeMsg) Background()     {}
func (autoRetryMsg) Background()   {}
func (spinnerTickMsg) Background() {}
