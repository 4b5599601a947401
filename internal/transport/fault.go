package transport

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/aitutor/tutorchat/internal/chat"
)

// ErrInjected is the transient failure produced by FaultInjector.
var ErrInjected = errors.New("simulated network failure")

// FaultInjector fails a fraction of sends before they reach the wrapped
// transport. It exists for demos of the retry flow and is never enabled
// by default.
type FaultInjector struct {
	next chat.Transport
	rate float64

	mu   sync.Mutex
	roll func() float64
}

// NewFaultInjector wraps next, failing sends with probability rate
// (clamped to [0, 1]).
func NewFaultInjector(next chat.Transport, rate float64) *FaultInjector {
	return &FaultInjector{next: next, rate: min(max(rate, 0), 1), roll: rand.Float64}
}

func (f *FaultInjector) Send(ctx context.Context, tab chat.Tab, content string) (*chat.Reply, error) {
	f.mu.Lock()
	fail := f.roll() < f.rate
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return f.next.Send(ctx, tab, content)
}
