// Package server exposes the tutor over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/llm"
	"github.com/aitutor/tutorchat/internal/metrics"
	"github.com/aitutor/tutorchat/internal/transport"
)

const maxBodyBytes = 64 << 10

// Tutor is what the server needs from the tutor backend.
type Tutor interface {
	chat.Transport
	Assess(ctx context.Context, request string) (chat.Assessment, error)
}

// Options configures a Server.
type Options struct {
	Version     string
	Model       string
	CORSOrigins []string
	RateLimit   float64
	RateBurst   int
	// ReplyTimeout bounds one tutor call. Zero means no limit.
	ReplyTimeout time.Duration
}

// Server routes HTTP and WebSocket requests to the tutor.
type Server struct {
	tutor   Tutor
	metrics *metrics.Metrics
	limiter *clientLimiter
	opts    Options
	log     zerolog.Logger
	router  chi.Router
}

// New builds the router. m may be nil to disable metrics.
func New(t Tutor, m *metrics.Metrics, opts Options, log zerolog.Logger) *Server {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 10
	}
	if opts.Model == "" {
		opts.Model = "offline"
	}
	s := &Server{
		tutor:   t,
		metrics: m,
		limiter: newClientLimiter(opts.RateLimit, opts.RateBurst),
		opts:    opts,
		log:     log.With().Str("component", "server").Logger(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors(s.opts.CORSOrigins))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post(transport.MessagesPath, s.handleMessage)
		r.Get(transport.ChatPath, s.handleChatSocket)
	})
	s.router = r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is done, then shuts down gracefully,
// waiting up to shutdownTimeout for in-flight requests.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("tutor server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info().Msg("shutting down tutor server")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				if n := s.limiter.sweep(10 * time.Minute); n > 0 {
					s.log.Debug().Int("evicted", n).Msg("swept idle rate limiters")
				}
			}
		}
	})
	return g.Wait()
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to Personal Tutor AI System"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, transport.HealthResponse{
		Status:  "healthy",
		Version: s.opts.Version,
		Model:   s.opts.Model,
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req transport.MessageRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid JSON format")
		return
	}
	tab := chat.TabHome
	if req.Tab != "" {
		t, err := chat.ParseTab(req.Tab)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		tab = t
	}

	ctx, cancel := s.replyContext(llm.WithSession(r.Context(), sessionID(r)))
	defer cancel()

	reply, err := s.tutor.Send(ctx, tab, req.Content)
	if err != nil {
		status, msg := s.failure(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, transport.MessageResponse{Content: reply.Content, Attachment: reply.Attachment})
}

// failure maps a tutor error to a status code and the message shown to
// the client.
func (s *Server) failure(err error) (int, string) {
	var rej *chat.RejectedError
	switch {
	case errors.As(err, &rej):
		return http.StatusUnprocessableEntity, rej.Reason
	case errors.Is(err, context.DeadlineExceeded):
		s.log.Warn().Err(err).Msg("tutor reply timed out")
		return http.StatusGatewayTimeout, "tutor timed out"
	}
	s.log.Warn().Err(err).Bool("llm_unavailable", llm.Unavailable(err)).Msg("tutor reply failed")
	return http.StatusServiceUnavailable, "tutor unavailable"
}

func (s *Server) replyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.ReplyTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.ReplyTimeout)
	}
	return context.WithCancel(ctx)
}

// sessionID is the client's session header, or a fresh id so anonymous
// requests never share history.
func sessionID(r *http.Request) string {
	if id := r.Header.Get(transport.SessionHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, transport.ErrorResponse{Error: msg})
}
