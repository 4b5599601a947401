package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestEngine(t *testing.T, replies ...MockReply) (*Engine, *MockTransport) {
	t.Helper()
	mt := NewMockTransport(replies...)
	cfg := DefaultConfig()
	cfg.AutoRetryDelay = 0
	return NewEngine(NewSession(), mt, cfg, zerolog.Nop()), mt
}

func TestSubmitAppendsPendingMessage(t *testing.T) {
	e, _ := newTestEngine(t, TextReply("Hi there!"))

	d, err := e.Submit("Hello")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	conv := e.Session().Store().Conversation(TabHome)
	if len(conv) != 2 {
		t.Fatalf("conversation length = %d, want 2", len(conv))
	}
	last := conv[1]
	if last.Author != AuthorUser || last.Content != "Hello" || last.Status != StatusPending {
		t.Errorf("last message = %+v, want pending user Hello", last)
	}
	if d.MessageID != last.ID || d.Attempt != 1 || d.Tab != TabHome {
		t.Errorf("dispatch = %+v", d)
	}
	if !e.Session().Composing() {
		t.Error("expected composing while pending")
	}

	s := e.Settle(e.Send(context.Background(), d))
	if s.Status != StatusConfirmed {
		t.Fatalf("settlement status = %s, want confirmed", s.Status)
	}

	conv = e.Session().Store().Conversation(TabHome)
	if len(conv) != 3 {
		t.Fatalf("conversation length = %d, want 3", len(conv))
	}
	if conv[1].Status != StatusConfirmed {
		t.Errorf("user message status = %s, want confirmed", conv[1].Status)
	}
	if conv[2].Author != AuthorAssistant || conv[2].Content != "Hi there!" {
		t.Errorf("reply = %+v", conv[2])
	}
	if e.Session().Composing() {
		t.Error("composing should be off after settle")
	}
}

func TestSubmitValidation(t *testing.T) {
	e, mt := newTestEngine(t)

	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t"},
		{"too long", strings.Repeat("a", DefaultConfig().MaxContentLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Submit(tt.content)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if got := e.Session().Store().Len(TabHome); got != 1 {
				t.Errorf("conversation length = %d, want 1", got)
			}
		})
	}
	if mt.CallCount() != 0 {
		t.Errorf("transport called %d times", mt.CallCount())
	}
}

func TestSubmitBusyRejection(t *testing.T) {
	e, _ := newTestEngine(t)

	if _, err := e.Submit("first"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	_, err := e.Submit("second")
	if !errors.Is(err, ErrAlreadySending) {
		t.Fatalf("err = %v, want ErrAlreadySending", err)
	}
	if got := e.Session().Store().Len(TabHome); got != 2 {
		t.Errorf("conversation length = %d, want 2", got)
	}

	// Another tab is not busy.
	if err := e.Session().SetActiveTab(TabReview); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Submit("other tab"); err != nil {
		t.Errorf("Submit on idle tab: %v", err)
	}
}

func TestFailureThenAutoRetry(t *testing.T) {
	e, mt := newTestEngine(t, FailReply(errors.New("Network connection failed")), TextReply("ok"))

	d, err := e.Submit("test")
	if err != nil {
		t.Fatal(err)
	}
	s := e.Settle(e.Send(context.Background(), d))
	if s.Status != StatusFailed || !s.AutoRetry || s.Terminal {
		t.Fatalf("settlement = %+v", s)
	}

	msg, _ := e.Session().Store().Find(TabHome, d.MessageID)
	if msg.Status != StatusFailed || msg.LastError != "Network connection failed" || msg.Attempts != 1 {
		t.Errorf("failed message = %+v", msg)
	}

	c := NewCoordinator(e, 0)
	next, err := c.ScheduleAutoRetry(context.Background(), s)
	if err != nil {
		t.Fatalf("ScheduleAutoRetry: %v", err)
	}
	if next.Attempt != 2 || next.MessageID != d.MessageID || next.Content != "test" {
		t.Errorf("retry dispatch = %+v", next)
	}
	msg, _ = e.Session().Store().Find(TabHome, d.MessageID)
	if msg.Status != StatusPending || msg.Attempts != 2 || msg.LastError != "" {
		t.Errorf("retried message = %+v", msg)
	}

	s = e.Settle(e.Send(context.Background(), next))
	if s.Status != StatusConfirmed {
		t.Errorf("second attempt status = %s", s.Status)
	}
	if mt.CallCount() != 2 {
		t.Errorf("transport calls = %d, want 2", mt.CallCount())
	}
}

func TestRetryCeiling(t *testing.T) {
	fail := FailReply(errors.New("Network connection failed"))
	e, mt := newTestEngine(t, fail, fail, fail, TextReply("never"))
	c := NewCoordinator(e, 0)

	d, err := e.Submit("test")
	if err != nil {
		t.Fatal(err)
	}
	s := c.Run(context.Background(), d)

	if !s.Terminal || s.Status != StatusFailed {
		t.Fatalf("settlement = %+v, want terminal failure", s)
	}
	if mt.CallCount() != MaxAttempts {
		t.Errorf("transport calls = %d, want %d", mt.CallCount(), MaxAttempts)
	}
	msg, _ := e.Session().Store().Find(TabHome, d.MessageID)
	if msg.Attempts != MaxAttempts || msg.Status != StatusFailed {
		t.Errorf("message = %+v", msg)
	}
	te, ok := e.Session().TerminalError()
	if !ok || te.MessageID != d.MessageID {
		t.Fatalf("terminal error = %+v, %v", te, ok)
	}

	// No fourth attempt, automatic or manual.
	if c.Claim(s) {
		t.Error("terminal settlement should not be claimable")
	}
	if _, err := c.ManualRetry(TabHome, d.MessageID); !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("ManualRetry err = %v, want ErrRetryExhausted", err)
	}
	msg, _ = e.Session().Store().Find(TabHome, d.MessageID)
	if msg.Attempts != MaxAttempts {
		t.Errorf("attempts = %d after refused retry", msg.Attempts)
	}

	// Dismissing and sending something new recovers.
	e.DismissError()
	if _, ok := e.Session().TerminalError(); ok {
		t.Error("terminal error should be dismissed")
	}
	d2, err := e.Submit("again")
	if err != nil {
		t.Fatalf("Submit after dismiss: %v", err)
	}
	if s := e.Settle(e.Send(context.Background(), d2)); s.Status != StatusConfirmed {
		t.Errorf("new submission status = %s", s.Status)
	}
}

func TestSuccessClearsTerminalError(t *testing.T) {
	fail := FailReply(errors.New("down"))
	e, _ := newTestEngine(t, fail, fail, fail, TextReply("back"))
	c := NewCoordinator(e, 0)

	d, _ := e.Submit("one")
	c.Run(context.Background(), d)
	if _, ok := e.Session().TerminalError(); !ok {
		t.Fatal("expected terminal error")
	}

	d2, err := e.Submit("two")
	if err != nil {
		t.Fatal(err)
	}
	e.Settle(e.Send(context.Background(), d2))
	if _, ok := e.Session().TerminalError(); ok {
		t.Error("successful send should clear terminal error")
	}
}

func TestRejectedFailureNeverAutoRetries(t *testing.T) {
	e, mt := newTestEngine(t,
		FailReply(&RejectedError{Reason: "content not allowed"}),
		TextReply("fixed"),
	)
	c := NewCoordinator(e, 0)

	d, _ := e.Submit("bad input")
	s := c.Run(context.Background(), d)
	if s.Status != StatusFailed || s.Failure != FailureRejected || s.AutoRetry {
		t.Fatalf("settlement = %+v", s)
	}
	if mt.CallCount() != 1 {
		t.Errorf("transport calls = %d, want 1", mt.CallCount())
	}

	// Manual retry is still allowed.
	next, err := c.ManualRetry(TabHome, d.MessageID)
	if err != nil {
		t.Fatalf("ManualRetry: %v", err)
	}
	if s := e.Settle(e.Send(context.Background(), next)); s.Status != StatusConfirmed {
		t.Errorf("manual retry status = %s", s.Status)
	}
}

func TestSendTimeoutIsTransient(t *testing.T) {
	mt := NewMockTransport(MockReply{Reply: &Reply{Content: "late"}, Delay: time.Second})
	cfg := DefaultConfig()
	cfg.SendTimeout = 10 * time.Millisecond
	e := NewEngine(NewSession(), mt, cfg, zerolog.Nop())

	d, _ := e.Submit("slow")
	s := e.Settle(e.Send(context.Background(), d))
	if s.Status != StatusFailed || s.Failure != FailureTransient || s.Reason != "timeout" {
		t.Errorf("settlement = %+v, want transient timeout", s)
	}
}

func TestIdentityStableAcrossRetries(t *testing.T) {
	e, _ := newTestEngine(t, FailReply(errors.New("x")), FailReply(errors.New("y")), TextReply("z"))
	c := NewCoordinator(e, 0)

	var ids []string
	e.AddObserver(ObserverFunc(func(ev Event) {
		if ev.Message.Author == AuthorUser {
			ids = append(ids, ev.Message.ID)
		}
	}))

	d, _ := e.Submit("hello?")
	s := c.Run(context.Background(), d)
	if s.Status != StatusConfirmed {
		t.Fatalf("status = %s", s.Status)
	}
	if len(ids) == 0 {
		t.Fatal("no user events observed")
	}
	for _, id := range ids {
		if id != d.MessageID {
			t.Fatalf("message id changed: %s != %s", id, d.MessageID)
		}
	}
}

func TestOrderPreserved(t *testing.T) {
	e, _ := newTestEngine(t,
		TextReply("r1"),
		FailReply(errors.New("net")),
		TextReply("r2"),
	)

	d1, _ := e.Submit("first")
	e.Settle(e.Send(context.Background(), d1))

	d2, _ := e.Submit("second")
	s := e.Settle(e.Send(context.Background(), d2))
	if s.Status != StatusFailed {
		t.Fatal("expected failure")
	}
	if _, err := e.QuickAction("get-help"); err != nil {
		t.Fatal(err)
	}
	next, err := e.Retry(TabHome, d2.MessageID)
	if err != nil {
		t.Fatal(err)
	}
	e.Settle(e.Send(context.Background(), next))

	var got []string
	for _, m := range e.Session().Store().Conversation(TabHome)[1:] {
		got = append(got, string(m.Author)+":"+m.Content)
	}
	want := []string{
		"user:first",
		"assistant:r1",
		"user:second",
		"assistant:Here's what you can do.",
		"assistant:r2",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("order = %v\nwant %v", got, want)
	}
}

func TestTabIsolation(t *testing.T) {
	e, _ := newTestEngine(t, TextReply("home reply"))

	before := map[Tab][]Message{}
	for _, tab := range AllTabs() {
		before[tab] = e.Session().Store().Conversation(tab)
	}

	d, _ := e.Submit("on home")
	if err := e.Session().SetActiveTab(TabExplore); err != nil {
		t.Fatal(err)
	}
	e.Settle(e.Send(context.Background(), d))

	for _, tab := range []Tab{TabProgress, TabReview, TabExplore} {
		got := e.Session().Store().Conversation(tab)
		if len(got) != len(before[tab]) || got[0].ID != before[tab][0].ID {
			t.Errorf("tab %s changed: %d messages", tab, len(got))
		}
	}
	if got := e.Session().Store().Len(TabHome); got != 3 {
		t.Errorf("home length = %d, want 3", got)
	}
}

func TestStaleSettleIgnored(t *testing.T) {
	e, _ := newTestEngine(t, TextReply("one"))

	d, _ := e.Submit("hi")
	s := e.Settle(e.Send(context.Background(), d))
	if s.Stale {
		t.Fatal("first settle should not be stale")
	}

	s = e.Settle(Outcome{Dispatch: d, Err: errors.New("late failure")})
	if !s.Stale {
		t.Error("second settle should be stale")
	}
	msg, _ := e.Session().Store().Find(TabHome, d.MessageID)
	if msg.Status != StatusConfirmed {
		t.Errorf("status = %s, want confirmed", msg.Status)
	}
}

func TestRetryErrors(t *testing.T) {
	e, _ := newTestEngine(t, TextReply("done"))

	if _, err := e.Retry(TabHome, "missing"); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("unknown id err = %v", err)
	}

	d, _ := e.Submit("hi")
	if _, err := e.Retry(TabHome, d.MessageID); !errors.Is(err, ErrNotRetryable) {
		t.Errorf("pending retry err = %v", err)
	}
	e.Settle(e.Send(context.Background(), d))
	if _, err := e.Retry(TabHome, d.MessageID); !errors.Is(err, ErrNotRetryable) {
		t.Errorf("confirmed retry err = %v", err)
	}
}

func TestRetryRejectedWhileTabBusy(t *testing.T) {
	e, _ := newTestEngine(t, FailReply(errors.New("net")))

	d1, _ := e.Submit("first")
	e.Settle(e.Send(context.Background(), d1))
	if _, err := e.Submit("second"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Retry(TabHome, d1.MessageID); !errors.Is(err, ErrAlreadySending) {
		t.Errorf("err = %v, want ErrAlreadySending", err)
	}
}

func TestCoordinatorForgetsSettledMessages(t *testing.T) {
	fail := FailReply(errors.New("flaky"))
	e, _ := newTestEngine(t, fail, TextReply("ok"), fail, fail, fail)
	c := NewCoordinator(e, 0)

	d, _ := e.Submit("first")
	if s := c.Run(context.Background(), d); s.Status != StatusConfirmed {
		t.Fatalf("first status = %s", s.Status)
	}
	if n := c.tracked(); n != 0 {
		t.Errorf("tracked after confirm = %d, want 0", n)
	}

	d, _ = e.Submit("second")
	if s := c.Run(context.Background(), d); !s.Terminal {
		t.Fatalf("second settlement = %+v, want terminal", s)
	}
	if n := c.tracked(); n != 0 {
		t.Errorf("tracked after terminal = %d, want 0", n)
	}
}
