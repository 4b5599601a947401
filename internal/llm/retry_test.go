package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
}

func TestRetryTransientThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Text: "ok"},
	)
	resp, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != "ok" {
		t.Errorf("Text = %q", resp.Text)
	}
	if mock.CallCount() != 2 {
		t.Errorf("calls = %d, want 2", mock.CallCount())
	}
}

func TestRetryGivesUp(t *testing.T) {
	down := MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}
	mock := NewMockProvider(down, down, down, down)

	_, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})
	if !Unavailable(err) {
		t.Fatalf("err = %v", err)
	}
	if mock.CallCount() != 3 {
		t.Errorf("calls = %d, want 3", mock.CallCount())
	}
}

func TestRetryInvalidResponseOnce(t *testing.T) {
	bad := MockResponse{Text: `{"questions":1}`}
	mock := NewMockProvider(bad, bad, bad)

	_, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{Schema: questionsSchema()})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("calls = %d, want 2", mock.CallCount())
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	tests := []error{
		&ErrMaxTokensExceeded{},
		context.Canceled,
		context.DeadlineExceeded,
	}
	for _, e := range tests {
		mock := NewMockProvider(MockResponse{Err: e}, MockResponse{Text: "never"})
		_, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})
		if !errors.Is(err, e) {
			t.Errorf("err = %v, want %v", err, e)
		}
		if mock.CallCount() != 1 {
			t.Errorf("%v: calls = %d, want 1", e, mock.CallCount())
		}
	}
}

func TestRetryHonorsContext(t *testing.T) {
	down := MockResponse{Err: &ErrProviderUnavailable{}}
	mock := NewMockProvider(down, down, down)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := fastRetry()
	cfg.InitialWait = time.Hour
	cfg.MaxWait = time.Hour
	_, err := WithRetry(mock, cfg).Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRetryAfterIsRespected(t *testing.T) {
	r := &RetryProvider{cfg: fastRetry()}
	if got := r.wait(0, &ErrRateLimit{RetryAfter: 3 * time.Second}); got != 3*time.Second {
		t.Errorf("wait = %s", got)
	}
	if got := r.wait(5, errors.New("x")); got > 6*time.Millisecond {
		t.Errorf("wait = %s exceeds max with jitter", got)
	}
}

func TestTimeoutProvider(t *testing.T) {
	slow := &blockingProvider{}
	_, err := WithTimeout(slow, 5*time.Millisecond).Generate(context.Background(), Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v", err)
	}
}

type blockingProvider struct{}

func (blockingProvider) Name() string    { return "blocking" }
func (blockingProvider) ModelID() string { return "blocking" }
func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
