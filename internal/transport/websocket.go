package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/aitutor/tutorchat/internal/chat"
)

// WebSocket keeps one connection to /ws/chat and sends one request at a
// time. A broken connection is dropped and redialled on the next call.
type WebSocket struct {
	url       string
	sessionID string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebSocket creates a client for the server at baseURL (http or ws
// scheme). No connection is made until the first call.
func NewWebSocket(baseURL, sessionID string) *WebSocket {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return &WebSocket{url: u + ChatPath, sessionID: sessionID}
}

func (w *WebSocket) Send(ctx context.Context, tab chat.Tab, content string) (*chat.Reply, error) {
	frame, err := w.roundTrip(ctx, ClientFrame{Type: FrameChat, Content: &content, Tab: string(tab)})
	if err != nil {
		return nil, err
	}
	if frame.Type != FrameReply {
		return nil, fmt.Errorf("unexpected %q frame", frame.Type)
	}
	var text string
	if err := json.Unmarshal(frame.Content, &text); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &chat.Reply{Content: text, Attachment: frame.Attachment}, nil
}

// Assess asks the server for pre-assessment questions.
func (w *WebSocket) Assess(ctx context.Context, request string) (chat.Assessment, error) {
	frame, err := w.roundTrip(ctx, ClientFrame{Type: FrameStartLearning, Content: &request})
	if err != nil {
		return chat.Assessment{}, err
	}
	if frame.Type != FrameAssessment {
		return chat.Assessment{}, fmt.Errorf("unexpected %q frame", frame.Type)
	}
	var a chat.Assessment
	if err := json.Unmarshal(frame.Content, &a); err != nil {
		return chat.Assessment{}, fmt.Errorf("decode assessment: %w", err)
	}
	return a, nil
}

// Close closes the connection, if any.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close(websocket.StatusNormalClosure, "client closed")
	w.conn = nil
	return err
}

func (w *WebSocket) roundTrip(ctx context.Context, req ClientFrame) (ServerFrame, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	conn, err := w.dial(ctx)
	if err != nil {
		return ServerFrame{}, err
	}

	var frame ServerFrame
	if err := wsjson.Write(ctx, conn, req); err != nil {
		w.drop()
		return ServerFrame{}, contextOr(ctx, fmt.Errorf("write frame: %w", err))
	}
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		w.drop()
		return ServerFrame{}, contextOr(ctx, fmt.Errorf("read frame: %w", err))
	}

	if frame.Type == FrameError {
		if frame.Retryable {
			return ServerFrame{}, errors.New(frame.Message)
		}
		return ServerFrame{}, &chat.RejectedError{Reason: frame.Message}
	}
	return frame, nil
}

func (w *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
	if w.conn != nil {
		return w.conn, nil
	}
	h := http.Header{}
	h.Set(SessionHeader, w.sessionID)
	conn, _, err := websocket.Dial(ctx, w.url, &websocket.DialOptions{HTTPHeader: h})
	if err != nil {
		return nil, contextOr(ctx, fmt.Errorf("dial %s: %w", w.url, err))
	}
	w.conn = conn
	return conn, nil
}

// drop abandons a connection whose state is unknown after a failed
// read or write. Callers hold mu.
func (w *WebSocket) drop() {
	if w.conn != nil {
		_ = w.conn.CloseNow()
		w.conn = nil
	}
}

// contextOr prefers the context's error so deadlines classify as
// timeouts.
func contextOr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
