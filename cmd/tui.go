package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aitutor/tutorchat/internal/app"
	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/metrics"
	"github.com/aitutor/tutorchat/internal/screens/history"
)

// runApp builds the chat engine and launches the TUI.
func runApp(cmd *cobra.Command) error {
	d, err := setup(cmd, setupOptions{logToFile: true})
	if err != nil {
		return err
	}
	defer d.Close()

	session := chat.NewSession()
	m := metrics.New()
	observers := []chat.Observer{m}
	var source history.Source
	if rec := d.recorder(); rec != nil {
		observers = append(observers, rec)
		source = d.events
	}

	engine := chat.NewEngine(session, d.transport(session.ID), d.cfg.Chat, d.log, observers...)
	coord := chat.NewCoordinator(engine, d.cfg.Chat.AutoRetryDelay)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		stop := serveMetrics(addr, m, d)
		defer stop()
	}

	d.log.Info().
		Str("session_id", session.ID).
		Str("transport", d.cfg.Client.Transport).
		Msg("starting chat")

	return app.Run(app.Options{
		Context:     ctx,
		Engine:      engine,
		Coordinator: coord,
		History:     source,
		Status:      d.status(),
	})
}

// serveMetrics exposes the client's Prometheus registry until stop is
// called.
func serveMetrics(addr string, m *metrics.Metrics, d *deps) (stop func()) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.log.Error().Err(err).Str("addr", addr).Msg("metrics server")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
