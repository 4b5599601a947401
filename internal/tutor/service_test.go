package tutor

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/llm"
)

func TestLearningSubject(t *testing.T) {
	tests := []struct {
		in      string
		subject string
		ok      bool
	}{
		{"I want to learn Python", "Python", true},
		{"i would like to learn about machine learning.", "machine learning", true},
		{"Teach me web development!", "web development", true},
		{"learn Go", "Go", true},
		{"What is a closure?", "", false},
		{"learn", "", false},
	}
	for _, tt := range tests {
		subject, ok := LearningSubject(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.subject, subject, tt.in)
	}
}

func TestServiceOfflineReply(t *testing.T) {
	s := NewService(nil, DefaultConfig(), zerolog.Nop())
	assert.False(t, s.Available())

	for _, tab := range chat.AllTabs() {
		reply, err := s.Send(context.Background(), tab, "hello")
		require.NoError(t, err)
		assert.Equal(t, offlineReplies[tab], reply.Content)
	}
}

func TestServiceRejectsEmptyAndUnknownTab(t *testing.T) {
	s := NewService(nil, DefaultConfig(), zerolog.Nop())
	var rej *chat.RejectedError

	_, err := s.Send(context.Background(), chat.TabHome, " ")
	assert.True(t, errors.As(err, &rej))

	_, err = s.Send(context.Background(), chat.Tab("settings"), "hi")
	assert.True(t, errors.As(err, &rej))
}

func TestServiceLearningRequestReturnsAssessment(t *testing.T) {
	s := NewService(nil, DefaultConfig(), zerolog.Nop())

	reply, err := s.Send(context.Background(), chat.TabExplore, "I want to learn Python")
	require.NoError(t, err)
	require.NotNil(t, reply.Attachment)
	assert.Equal(t, chat.KindAssessment, reply.Attachment.Kind)
	assert.Contains(t, reply.Content, "learning path for Python")

	var a chat.Assessment
	require.NoError(t, reply.Attachment.Decode(&a))
	assert.Len(t, a.Questions, 6)
	assert.Contains(t, reply.Content, "6. "+a.Questions[5])
}

func TestServiceReplyUsesTabPromptAndHistory(t *testing.T) {
	p := llm.NewMockProvider(
		llm.MockResponse{Text: "A goroutine is a lightweight thread."},
		llm.MockResponse{Text: "Use a channel."},
	)
	s := NewService(p, DefaultConfig(), zerolog.Nop())
	ctx := llm.WithSession(context.Background(), "s1")

	reply, err := s.Send(ctx, chat.TabReview, "What is a goroutine?")
	require.NoError(t, err)
	assert.Equal(t, "A goroutine is a lightweight thread.", reply.Content)

	_, err = s.Send(ctx, chat.TabReview, "How do they talk?")
	require.NoError(t, err)

	calls := p.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].System, tabPrompts[chat.TabReview])
	assert.Nil(t, calls[0].Schema)
	require.Len(t, calls[1].Messages, 3)
	assert.Equal(t, llm.RoleAssistant, calls[1].Messages[1].Role)
	assert.Equal(t, "How do they talk?", calls[1].Messages[2].Content)

	// Other tabs and sessions start empty.
	assert.Empty(t, s.History("s1", chat.TabHome))
	assert.Empty(t, s.History("s2", chat.TabReview))
	assert.Len(t, s.History("s1", chat.TabReview), 4)

	s.Forget("s1")
	assert.Empty(t, s.History("s1", chat.TabReview))
}

func TestServiceHistoryIsBounded(t *testing.T) {
	p := llm.NewMockProvider()
	for i := 0; i < 10; i++ {
		p.Add(llm.MockResponse{Text: "ok"})
	}
	s := NewService(p, Config{HistoryTurns: 4}, zerolog.Nop())
	for i := 0; i < 10; i++ {
		_, err := s.Send(context.Background(), chat.TabHome, "q")
		require.NoError(t, err)
	}
	h := s.History("", chat.TabHome)
	require.Len(t, h, 8, "4 turns of user and assistant messages")
	assert.Equal(t, llm.RoleUser, h[0].Role)
	assert.Equal(t, llm.RoleAssistant, h[7].Role)
}

func TestServiceErrorMapping(t *testing.T) {
	p := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("503")}},
		llm.MockResponse{Err: &llm.ErrInvalidResponse{Err: errors.New("400 bad request")}},
		llm.MockResponse{Text: "  "},
	)
	s := NewService(p, DefaultConfig(), zerolog.Nop())

	_, err := s.Send(context.Background(), chat.TabHome, "hi")
	kind, _ := chat.Classify(err)
	assert.Equal(t, chat.FailureTransient, kind)

	_, err = s.Send(context.Background(), chat.TabHome, "hi")
	kind, _ = chat.Classify(err)
	assert.Equal(t, chat.FailureRejected, kind)

	_, err = s.Send(context.Background(), chat.TabHome, "hi")
	kind, _ = chat.Classify(err)
	assert.Equal(t, chat.FailureTransient, kind)

	assert.Empty(t, s.History("", chat.TabHome))
}

func TestServiceDrivesEngine(t *testing.T) {
	p := llm.NewMockProvider(llm.MockResponse{Text: "Hello, learner."})
	s := NewService(p, DefaultConfig(), zerolog.Nop())
	e := chat.NewEngine(chat.NewSession(), s, chat.DefaultConfig(), zerolog.Nop())

	d, err := e.Submit("hi")
	require.NoError(t, err)
	st := e.Settle(e.Send(context.Background(), d))
	assert.Equal(t, chat.StatusConfirmed, st.Status)

	v := chat.Project(e.Session(), chat.TabHome)
	assert.Equal(t, "Hello, learner.", v.Last().Content)
}
