package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/aitutor/tutorchat/internal/chat"
)

// HTTP sends each message as one POST to the tutor server.
type HTTP struct {
	client    *resty.Client
	sessionID string
}

// NewHTTP creates a client for the server at baseURL. Timeouts come from
// the caller's context; timeout is only a backstop.
func NewHTTP(baseURL, sessionID string, timeout time.Duration) *HTTP {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", "tutorchat/1.0").
		SetHeader("Content-Type", "application/json").
		SetHeader(SessionHeader, sessionID).
		SetTimeout(timeout)
	return &HTTP{client: client, sessionID: sessionID}
}

func (h *HTTP) Send(ctx context.Context, tab chat.Tab, content string) (*chat.Reply, error) {
	var result MessageResponse
	var apiErr ErrorResponse
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(MessageRequest{Tab: string(tab), Content: content}).
		SetResult(&result).
		SetError(&apiErr).
		Post(MessagesPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("post message: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp.StatusCode(), apiErr.Error, resp.String())
	}
	return &chat.Reply{Content: result.Content, Attachment: result.Attachment}, nil
}

// Health fetches the server's health report.
func (h *HTTP) Health(ctx context.Context) (HealthResponse, error) {
	var result HealthResponse
	resp, err := h.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/health")
	if err != nil {
		return HealthResponse{}, fmt.Errorf("get health: %w", err)
	}
	if resp.IsError() {
		return HealthResponse{}, fmt.Errorf("health check failed (status %d)", resp.StatusCode())
	}
	return result, nil
}

// statusError maps an HTTP failure onto chat failure kinds: client
// errors are rejections, everything else can be retried.
func statusError(status int, msg, body string) error {
	if msg == "" {
		msg = strings.TrimSpace(body)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	if status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests {
		return &chat.RejectedError{Reason: msg}
	}
	return &StatusError{Code: status, Message: msg}
}

// StatusError is a retryable non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tutor server error (status %d): %s", e.Code, e.Message)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
