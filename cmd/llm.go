package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aitutor/tutorchat/internal/llm"
	"github.com/aitutor/tutorchat/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect tutor model calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		session, _ := cmd.Flags().GetString("session")

		d, err := setup(cmd, setupOptions{requireStore: true})
		if err != nil {
			return err
		}
		defer d.Close()

		events, err := d.events.QueryLLMEvents(cmd.Context(), store.QueryOpts{
			Limit:     limit,
			Purpose:   purpose,
			SessionID: session,
		})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No model calls recorded.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-11s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-11s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and response of a model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		d, err := setup(cmd, setupOptions{requireStore: true})
		if err != nil {
			return err
		}
		defer d.Close()

		e, err := d.events.GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:        %d\n", e.ID)
		fmt.Fprintf(out, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Session:   %s\n", e.SessionID)
		fmt.Fprintf(out, "Provider:  %s\n", e.Provider)
		fmt.Fprintf(out, "Model:     %s\n", e.Model)
		fmt.Fprintf(out, "Purpose:   %s\n", e.Purpose)
		fmt.Fprintf(out, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Fprintf(out, "Latency:   %dms\n", e.LatencyMs)
		if e.ErrorMessage != "" {
			fmt.Fprintf(out, "Error:     %s\n", e.ErrorMessage)
		}
		section(out, "REQUEST", e.RequestBody)
		section(out, "RESPONSE", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, setupOptions{requireStore: true})
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		byPurpose, err := d.events.LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(byPurpose) == 0 {
			fmt.Fprintln(out, "No model usage recorded yet.")
			return nil
		}

		fmt.Fprintln(out, "Usage by purpose")
		usageTable(out, byPurpose)

		byModel, err := d.events.LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Estimated cost (USD)")
		fmt.Fprintln(out, strings.Repeat("─", 72))

		var total float64
		var unknown []string
		for _, mu := range byModel {
			price, ok := llm.PriceFor(mu.Key)
			if !ok {
				unknown = append(unknown, mu.Key)
				fmt.Fprintf(out, "%-32s  %6d calls  %10s\n", truncate(mu.Key, 32), mu.Calls, "?")
				continue
			}
			c := price.Cost(mu.InputTokens, mu.OutputTokens)
			total += c
			fmt.Fprintf(out, "%-32s  %6d calls  %10s\n", truncate(mu.Key, 32), mu.Calls, formatCost(c))
		}
		fmt.Fprintln(out, strings.Repeat("─", 72))
		label := "TOTAL"
		if len(unknown) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Fprintf(out, "%-32s  %12s  %10s\n", label, "", formatCost(total))
		if len(unknown) > 0 {
			fmt.Fprintf(out, "\nPricing unavailable for: %s\n", strings.Join(unknown, ", "))
		}
		return nil
	},
}

var llmPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the configured model answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, setupOptions{})
		if err != nil {
			return err
		}
		defer d.Close()
		if d.provider == nil {
			return errors.New("no LLM provider configured; set ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY or OPENROUTER_API_KEY")
		}

		ctx := llm.WithPurpose(cmd.Context(), llm.PurposePing)
		start := time.Now()
		resp, err := d.provider.Generate(ctx, llm.Request{
			Messages:  []llm.Message{{Role: llm.RoleUser, Content: "Reply with the single word: pong"}},
			MaxTokens: 16,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", d.provider.Name(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s answered %q in %s (%d tokens)\n",
			d.provider.Name(), resp.Model, strings.TrimSpace(resp.Text),
			time.Since(start).Round(time.Millisecond), resp.Usage.InputTokens+resp.Usage.OutputTokens)
		return nil
	},
}

func usageTable(out io.Writer, stats []store.LLMUsageStats) {
	fmt.Fprintln(out, strings.Repeat("─", 72))
	fmt.Fprintf(out, "%-16s  %6s  %6s  %10s  %10s  %8s\n", "Purpose", "Calls", "Failed", "Input", "Output", "Avg Ms")
	fmt.Fprintln(out, strings.Repeat("─", 72))
	var calls, in, outTok int
	for _, st := range stats {
		fmt.Fprintf(out, "%-16s  %6d  %6d  %10d  %10d  %8.0f\n",
			st.Key, st.Calls, st.Failures, st.InputTokens, st.OutputTokens, st.AvgLatencyMs)
		calls += st.Calls
		in += st.InputTokens
		outTok += st.OutputTokens
	}
	fmt.Fprintln(out, strings.Repeat("─", 72))
	fmt.Fprintf(out, "%-16s  %6d  %6s  %10d  %10d\n", "TOTAL", calls, "", in, outTok)
}

func section(out io.Writer, title, body string) {
	sep := strings.Repeat("─", 60)
	fmt.Fprintf(out, "\n%s\n%s\n%s\n", sep, title, sep)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Fprintln(out, body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (chat-reply, assessment, ping)")
	llmListCmd.Flags().String("session", "", "Filter by chat session id")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
	llmCmd.AddCommand(llmPingCmd)
}
