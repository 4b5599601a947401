// Package transport carries chat messages between the client engine and
// the tutor: in-process, over HTTP, or over a WebSocket.
package transport

import (
	"encoding/json"

	"github.com/aitutor/tutorchat/internal/chat"
)

// MessagesPath is the HTTP endpoint for a single chat turn.
const MessagesPath = "/api/v1/messages"

// ChatPath is the WebSocket endpoint.
const ChatPath = "/ws/chat"

// SessionHeader carries the client session id so the tutor keeps
// per-session history.
const SessionHeader = "X-Session-ID"

// MessageRequest is the body of POST /api/v1/messages.
type MessageRequest struct {
	Tab     string `json:"tab"`
	Content string `json:"content"`
}

// MessageResponse is a successful reply.
type MessageResponse struct {
	Content    string           `json:"content"`
	Attachment *chat.Attachment `json:"attachment,omitempty"`
}

// ErrorResponse is the body of any non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	// Model is the tutor's model, or "offline" when none is configured.
	Model string `json:"model,omitempty"`
}

// WebSocket frame types.
const (
	FrameStartLearning = "start_learning"
	FrameChat          = "chat"
	FrameAssessment    = "assessment"
	FrameReply         = "reply"
	FrameError         = "error"
)

// ClientFrame is sent by the client. Content is a pointer so a missing
// field can be told apart from an empty one.
type ClientFrame struct {
	Type    string  `json:"type"`
	Content *string `json:"content,omitempty"`
	Tab     string  `json:"tab,omitempty"`
}

// ServerFrame is sent by the server. Content is a string for replies and
// an object for assessments.
type ServerFrame struct {
	Type       string           `json:"type"`
	Content    json.RawMessage  `json:"content,omitempty"`
	Attachment *chat.Attachment `json:"attachment,omitempty"`
	Message    string           `json:"message,omitempty"`
	Retryable  bool             `json:"retryable,omitempty"`
}

// ReplyFrame builds a reply frame.
func ReplyFrame(r *chat.Reply) ServerFrame {
	content, _ := json.Marshal(r.Content)
	return ServerFrame{Type: FrameReply, Content: content, Attachment: r.Attachment}
}

// AssessmentFrame builds an assessment frame.
func AssessmentFrame(a chat.Assessment) (ServerFrame, error) {
	content, err := json.Marshal(a)
	if err != nil {
		return ServerFrame{}, err
	}
	return ServerFrame{Type: FrameAssessment, Content: content}, nil
}

// ErrorFrame builds an error frame.
func ErrorFrame(msg string, retryable bool) ServerFrame {
	return ServerFrame{Type: FrameError, Message: msg, Retryable: retryable}
}
