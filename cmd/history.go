package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded chat sessions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		d, err := setup(cmd, setupOptions{requireStore: true})
		if err != nil {
			return err
		}
		defer d.Close()

		sessions, err := d.events.ListSessions(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-19s  %8s  %8s  %s\n", "Session", "Started", "Messages", "Failures", "Gave up")
		fmt.Fprintln(out, strings.Repeat("─", 90))
		for _, s := range sessions {
			gaveUp := ""
			if s.Terminal > 0 {
				gaveUp = "✗"
			}
			fmt.Fprintf(out, "%-36s  %-19s  %8d  %8d  %s\n",
				s.SessionID,
				s.Started.Local().Format("2006-01-02 15:04:05"),
				s.Messages,
				s.Failures,
				gaveUp,
			)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print the transcript of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, setupOptions{requireStore: true})
		if err != nil {
			return err
		}
		defer d.Close()

		entries, err := d.events.Transcript(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("load transcript: %w", err)
		}
		if len(entries) == 0 {
			return fmt.Errorf("session %s not found", args[0])
		}

		out := cmd.OutOrStdout()
		tab := ""
		for _, e := range entries {
			if e.Tab != tab {
				tab = e.Tab
				fmt.Fprintf(out, "\n== %s ==\n", tab)
			}
			line := fmt.Sprintf("[%s] %s: %s", e.Timestamp.Local().Format("15:04:05"), e.Author, e.Content)
			if e.Status == "failed" {
				line += fmt.Sprintf("  (failed after %d attempt(s): %s)", e.Attempts, e.Error)
			}
			if e.AttachmentKind != "" {
				line += "  [" + e.AttachmentKind + "]"
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}
