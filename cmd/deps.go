package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/config"
	"github.com/aitutor/tutorchat/internal/llm"
	"github.com/aitutor/tutorchat/internal/logging"
	"github.com/aitutor/tutorchat/internal/store"
	"github.com/aitutor/tutorchat/internal/transport"
	"github.com/aitutor/tutorchat/internal/tutor"
)

type setupOptions struct {
	// logToFile sends logs to a file because the TUI owns the terminal.
	logToFile bool
	// requireStore fails instead of running without the event log.
	requireStore bool
}

// deps holds everything a command builds from configuration.
type deps struct {
	cfg      config.Config
	log      zerolog.Logger
	store    *store.Store
	events   store.EventRepo // nil when the store is unavailable
	provider llm.Provider    // nil when no model is configured
	tutor    *tutor.Service

	closers   []io.Closer
	logCloser io.Closer
}

func setup(cmd *cobra.Command, opts setupOptions) (*deps, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg}

	dbPath, dbErr := resolveDBPath(cfg)

	logOpts := logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File}
	if opts.logToFile && logOpts.File == "" && dbErr == nil {
		logOpts.File = filepath.Join(filepath.Dir(dbPath), "tutorchat.log")
	}
	log, logCloser, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}
	d.log = log
	d.logCloser = logCloser

	switch {
	case dbErr != nil && opts.requireStore:
		d.Close()
		return nil, fmt.Errorf("resolve database path: %w", dbErr)
	case dbErr != nil:
		d.log.Warn().Err(dbErr).Msg("event log disabled")
	default:
		st, err := store.Open(dbPath)
		if err != nil {
			if opts.requireStore {
				d.Close()
				return nil, fmt.Errorf("open store: %w", err)
			}
			d.log.Warn().Err(err).Str("path", dbPath).Msg("event log disabled")
		} else {
			d.store = st
			d.events = st.EventRepo()
		}
	}

	// A nil *eventRepo must not reach the provider as a non-nil interface.
	var writer store.LLMEventWriter
	if d.events != nil {
		writer = d.events
	}
	provider, err := llm.NewProvider(cmd.Context(), cfg.LLM, writer, d.log)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if provider == nil {
		d.log.Info().Msg("no LLM provider configured, tutor runs offline")
	}
	d.provider = provider
	d.tutor = tutor.NewService(provider, cfg.Tutor, d.log)
	return d, nil
}

// Close flushes recorders and connections, then releases the store and
// the log sink.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			d.log.Debug().Err(err).Msg("close")
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.log.Warn().Err(err).Msg("close store")
		}
	}
	if d.logCloser != nil {
		_ = d.logCloser.Close()
	}
}

// transport builds the client transport for one chat session.
func (d *deps) transport(sessionID string) chat.Transport {
	var t chat.Transport
	switch d.cfg.Client.Transport {
	case config.TransportHTTP:
		t = transport.NewHTTP(d.cfg.Client.BackendURL, sessionID, d.cfg.Chat.SendTimeout)
	case config.TransportWebSocket:
		ws := transport.NewWebSocket(d.cfg.Client.BackendURL, sessionID)
		d.closers = append(d.closers, ws)
		t = ws
	default:
		t = transport.NewLocal(d.tutor, sessionID)
	}
	if rate := d.cfg.Client.InjectFailures; rate > 0 {
		d.log.Warn().Float64("rate", rate).Msg("injecting transport failures")
		t = transport.NewFaultInjector(t, rate)
	}
	return t
}

// status describes where replies come from, for headers and banners.
func (d *deps) status() string {
	switch d.cfg.Client.Transport {
	case config.TransportHTTP, config.TransportWebSocket:
		return d.cfg.Client.Transport + " " + d.cfg.Client.BackendURL
	}
	if d.provider == nil {
		return "offline"
	}
	return d.provider.ModelID()
}

// recorder returns an observer that writes chat events to the store, or
// nil without one.
func (d *deps) recorder() *store.ChatRecorder {
	if d.events == nil {
		return nil
	}
	rec := store.NewChatRecorder(d.events, d.log)
	d.closers = append(d.closers, closerFunc(func() error { rec.Close(); return nil }))
	return rec
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
