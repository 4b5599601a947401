package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aitutor/tutorchat/internal/chat"
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message to the tutor and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tabName, _ := cmd.Flags().GetString("tab")
		tab, err := chat.ParseTab(tabName)
		if err != nil {
			return err
		}

		d, err := setup(cmd, setupOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		session := chat.NewSession()
		var observers []chat.Observer
		if rec := d.recorder(); rec != nil {
			observers = append(observers, rec)
		}
		engine := chat.NewEngine(session, d.transport(session.ID), d.cfg.Chat, d.log, observers...)
		if err := session.SetActiveTab(tab); err != nil {
			return err
		}

		dispatch, err := engine.Submit(strings.Join(args, " "))
		if err != nil {
			return err
		}
		settled := chat.NewCoordinator(engine, d.cfg.Chat.AutoRetryDelay).Run(cmd.Context(), dispatch)
		if settled.Status != chat.StatusConfirmed {
			return fmt.Errorf("tutor did not reply after %d attempt(s): %s", settled.Attempt, settled.Reason)
		}

		conv := session.Store().Conversation(tab)
		reply := conv[len(conv)-1]
		fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
		if reply.Attachment != nil && reply.Attachment.Kind != chat.KindAssessment {
			fmt.Fprintf(cmd.OutOrStdout(), "\n[%s attachment]\n", reply.Attachment.Kind)
		}
		return nil
	},
}

func init() {
	addClientFlags(askCmd)
	askCmd.Flags().String("tab", string(chat.TabHome), "Conversation to send to: home, progress, review or explore")
}
