package store

import (
	"context"
	"time"
)

// QueryOpts filters and pages event queries. Zero values mean no limit.
type QueryOpts struct {
	Limit     int
	After     int64 // sequence > After
	Before    int64 // sequence < Before
	SessionID string
	Purpose   string
}

// ChatEventData is one chat engine state change.
type ChatEventData struct {
	SessionID      string
	Tab            string
	MessageID      string
	Kind           string
	Author         string
	Status         string
	Attempts       int
	Content        string
	Error          string
	Failure        string
	AttachmentKind string
	Timestamp      time.Time
}

// ChatEventRecord is a stored chat event.
type ChatEventRecord struct {
	ChatEventData
	ID       int
	Sequence int64
}

// SessionSummary aggregates one chat session's events.
type SessionSummary struct {
	SessionID string
	Started   time.Time
	LastEvent time.Time
	Messages  int // user submissions
	Failures  int
	Terminal  int
}

// TranscriptEntry is the final known state of one message.
type TranscriptEntry struct {
	Tab            string
	MessageID      string
	Author         string
	Status         string
	Attempts       int
	Content        string
	Error          string
	AttachmentKind string
	Timestamp      time.Time
}

// LLMRequestEventData is one model call.
type LLMRequestEventData struct {
	SessionID    string
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored model call.
type LLMRequestEventRecord struct {
	LLMRequestEventData
	ID        int
	Sequence  int64
	Timestamp time.Time
}

// LLMUsageStats aggregates calls by a key (purpose or model).
type LLMUsageStats struct {
	Key          string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs float64
}

// LLMEventWriter is the narrow interface the llm package logs through.
type LLMEventWriter interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// EventRepo appends and queries the event log.
type EventRepo interface {
	LLMEventWriter

	AppendChatEvent(ctx context.Context, data ChatEventData) error
	QueryChatEvents(ctx context.Context, opts QueryOpts) ([]ChatEventRecord, error)
	ListSessions(ctx context.Context, limit int) ([]SessionSummary, error)
	Transcript(ctx context.Context, sessionID string) ([]TranscriptEntry, error)

	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsageStats, error)
}
