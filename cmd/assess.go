package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/config"
	"github.com/aitutor/tutorchat/internal/transport"
)

type assessor interface {
	Assess(ctx context.Context, request string) (chat.Assessment, error)
}

var assessCmd = &cobra.Command{
	Use:   "assess <what you want to learn>",
	Short: "Print the questions the tutor asks before building a learning path",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, setupOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		var a assessor = d.tutor
		if d.cfg.Client.Transport == config.TransportWebSocket {
			ws := transport.NewWebSocket(d.cfg.Client.BackendURL, "")
			defer ws.Close()
			a = ws
		}

		assessment, err := a.Assess(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		for i, q := range assessment.Questions {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, q)
		}
		return nil
	},
}

func init() {
	assessCmd.Flags().String("transport", "", "local or ws")
	assessCmd.Flags().String("backend", "", "Backend URL for the ws transport")
}
