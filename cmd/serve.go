package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-portal/internal/logger"
	"github.com/spigell/job-portal/internal/scheduler"
	"github.com/spigell/job-portal/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant, notification and event endpoints over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "listen address (default is :8000)")
	serveCmd.Flags().Bool("sweep", false, "run the pending email sweep on its cron schedule")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("sweep.enabled", serveCmd.Flags().Lookup("sweep"))
}

// bootstrap builds the logger, reads the config and wires the application.
// Any failure here is fatal for the command.
func bootstrap(ctx context.Context, name string) (*zap.Logger, *Config, *application) {
	log, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
		Name:  name,
	})
	if err != nil {
		fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	log.Info("starting the job-portal", zap.String("version", version), zap.String("command", name))

	if log.Core().Enabled(zap.DebugLevel) {
		pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
		log.Debug(fmt.Sprintf("starting with config: \n %s", pretty))
	}

	a, err := buildApplication(ctx, config, log)
	if err != nil {
		log.Fatal("building the application",
			zap.Error(err),
			zap.String("hint", "check the ai and database sections of the configuration file"),
		)
	}

	return log, config, a
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, config, a := bootstrap(ctx, "serve")
	defer a.close()

	if config.Sweep.Enabled {
		sweeper := scheduler.New(a.notifier, *config.Sweep, log)
		if err := sweeper.Start(); err != nil {
			log.Fatal("starting the scheduler", zap.Error(err))
		}
		defer sweeper.Stop()
		log.Info("next pending email sweep", zap.Time("at", sweeper.Next()))
	}

	srv := server.New(*config.Server, server.Deps{
		Assistant:     a.assistant,
		Usage:         a.usage,
		Notifications: a.inbox,
		Notifier:      a.notifier,
	}, log)

	if err := srv.Run(ctx); err != nil {
		log.Error("server stopped", zap.Error(err))
		return
	}

	log.Info("exiting", zap.String("reason", "shutdown requested"))
}

func redacted(config *Config) *Config {
	out := *config

	ai := *config.AI
	for _, vendor := range []**VendorConfig{&ai.Claude, &ai.OpenAI, &ai.OpenRouter, &ai.Gemini} {
		if *vendor == nil {
			continue
		}
		v := **vendor
		v.APIKey = mask(v.APIKey)
		*vendor = &v
	}
	out.AI = &ai

	email := *config.Email
	email.APIKey = mask(email.APIKey)
	out.Email = &email

	return &out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}

func fatalf(format string, args ...any) {
	log.Fatalf(format, args...)
}
