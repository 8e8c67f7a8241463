package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-portal/internal/logger"
	"github.com/spigell/job-portal/internal/notify"
	"github.com/spigell/job-portal/internal/scheduler"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var confirm = promptui.Select{
	Label: "Send pending notification emails?",
	Items: []string{PromptYes, PromptNo},
}

var sendPendingCmd = &cobra.Command{
	Use:   "send-pending",
	Short: "Email stored notifications that were never emailed",
	Run: func(cmd *cobra.Command, _ []string) {
		sendPending(cmd)
	},
}

func init() {
	rootCmd.AddCommand(sendPendingCmd)

	sendPendingCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before sending")
	sendPendingCmd.Flags().IntP("limit", "l", scheduler.DefaultLimit, "maximum number of notifications to send")
}

func sendPending(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log, _, a := bootstrap(ctx, "send-pending")
	defer a.close()

	limit, _ := cmd.Flags().GetInt("limit")

	pending, err := a.inbox.Pending(ctx, limit, notify.TemplatedKinds()...)
	if err != nil {
		log.Fatal("listing pending notifications", zap.Error(err))
	}

	if len(pending) == 0 {
		log.Info("exiting", zap.String("reason", "no pending notifications"))
		return
	}

	for _, n := range pending {
		log.Info("pending notification",
			zap.Uint(logger.FieldNotification, n.ID),
			zap.String("kind", string(n.Kind)),
			zap.String(logger.FieldRecipient, n.RecipientID),
			zap.String("email", n.Payload.Data().RecipientEmail),
			zap.Time("created_at", n.CreatedAt),
		)
	}

	if !a.dispatcher.Enabled() {
		log.Warn("email api key is not configured, every send will fail",
			zap.String("hint", "set RESEND_API_KEY or email.api-key-file"),
		)
	}

	if auto, _ := cmd.Flags().GetBool("auto-approve"); !auto {
		_, answer, err := confirm.Run()
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}
		if answer != PromptYes {
			log.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	report, err := a.notifier.SendPending(ctx, limit)
	if err != nil {
		log.Fatal("sending pending notifications", zap.Error(err), zap.Int("sent", report.Sent))
	}

	if report.Failed > 0 {
		log.Warn("some notifications are still pending", zap.Int("failed", report.Failed))
	}
}
