package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aitutor/tutorchat/internal/metrics"
	"github.com/aitutor/tutorchat/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tutor backend (HTTP and WebSocket)",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, setupOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		addr := d.cfg.Server.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}

		model := "offline"
		if d.provider != nil {
			model = d.provider.ModelID()
		}

		srv := server.New(d.tutor, metrics.New(), server.Options{
			Version:      version,
			Model:        model,
			CORSOrigins:  d.cfg.Server.CORSOrigins,
			RateLimit:    d.cfg.Server.RateLimit,
			RateBurst:    d.cfg.Server.RateBurst,
			ReplyTimeout: d.cfg.Chat.SendTimeout,
		}, d.log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d.log.Info().
			Str("addr", addr).
			Str("model", model).
			Str("version", version).
			Msg("tutor backend listening")
		return srv.Run(ctx, addr, d.cfg.Server.ShutdownTimeout)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
