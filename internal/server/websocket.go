package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/llm"
	"github.com/aitutor/tutorchat/internal/transport"
)

// handleChatSocket runs the /ws/chat protocol: one client frame in, one
// server frame out, until the client goes away.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns()})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	if s.metrics != nil {
		s.metrics.WSSessions.Inc()
		defer s.metrics.WSSessions.Dec()
	}

	session := sessionID(r)
	client := clientKey(r)
	log := s.log.With().Str("session_id", session).Logger()
	log.Info().Msg("websocket session opened")

	ctx := llm.WithSession(r.Context(), session)
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Debug().Err(err).Msg("websocket read failed")
			}
			break
		}

		var out transport.ServerFrame
		switch {
		case typ != websocket.MessageText:
			out = transport.ErrorFrame("Invalid JSON format", false)
		case !s.limiter.allow(client):
			if s.metrics != nil {
				s.metrics.RateLimited.Inc()
			}
			out = transport.ErrorFrame("rate limit exceeded", true)
		default:
			out = s.handleFrame(ctx, log, data)
		}

		if err := wsjson.Write(ctx, conn, out); err != nil {
			log.Debug().Err(err).Msg("websocket write failed")
			break
		}
	}
	log.Info().Msg("websocket session closed")
	conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) handleFrame(ctx context.Context, log zerolog.Logger, data []byte) transport.ServerFrame {
	in, problem := decodeFrame(data)
	if problem != "" {
		return transport.ErrorFrame(problem, false)
	}
	switch in.Type {
	case transport.FrameStartLearning, transport.FrameChat:
	default:
		return transport.ErrorFrame("Invalid message type: "+in.Type, false)
	}
	if in.Content == nil {
		return transport.ErrorFrame("Missing required field: content", false)
	}

	ctx, cancel := s.replyContext(ctx)
	defer cancel()

	switch in.Type {
	case transport.FrameStartLearning:
		a, err := s.tutor.Assess(ctx, *in.Content)
		if err != nil {
			return s.errorFrame(log, err)
		}
		frame, err := transport.AssessmentFrame(a)
		if err != nil {
			return s.errorFrame(log, err)
		}
		return frame

	case transport.FrameChat:
		tab := chat.TabHome
		if in.Tab != "" {
			t, err := chat.ParseTab(in.Tab)
			if err != nil {
				return transport.ErrorFrame(err.Error(), false)
			}
			tab = t
		}
		reply, err := s.tutor.Send(ctx, tab, *in.Content)
		if err != nil {
			return s.errorFrame(log, err)
		}
		return transport.ReplyFrame(reply)
	}
	return transport.ErrorFrame("Invalid message type: "+in.Type, false)
}

// decodeFrame parses a client frame field by field. A non-empty problem
// is the error message to send back.
func decodeFrame(data []byte) (in transport.ClientFrame, problem string) {
	if !json.Valid(data) {
		return in, "Invalid JSON format"
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return in, "Message must be a JSON object"
	}

	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &in.Type); err != nil {
			in.Type = string(raw)
		}
	}
	if raw, ok := fields["content"]; ok && string(raw) != "null" {
		var content string
		if err := json.Unmarshal(raw, &content); err != nil {
			return in, "Field content must be a string"
		}
		in.Content = &content
	}
	if raw, ok := fields["tab"]; ok {
		if err := json.Unmarshal(raw, &in.Tab); err != nil {
			return in, "Field tab must be a string"
		}
	}
	return in, ""
}

func (s *Server) errorFrame(log zerolog.Logger, err error) transport.ServerFrame {
	var rej *chat.RejectedError
	if errors.As(err, &rej) {
		return transport.ErrorFrame(rej.Reason, false)
	}
	_, msg := s.failure(err)
	log.Debug().Err(err).Msg("websocket frame failed")
	return transport.ErrorFrame(msg, true)
}

// originPatterns converts CORS origins to the host patterns coder/websocket
// expects. An empty list allows only same-origin requests.
func (s *Server) originPatterns() []string {
	var out []string
	for _, o := range s.opts.CORSOrigins {
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		out = append(out, o)
	}
	return out
}
