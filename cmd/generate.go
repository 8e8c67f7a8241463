package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-portal/internal/ai"
	"github.com/spigell/job-portal/internal/ai/normalize"
	"github.com/spigell/job-portal/internal/assistant"
	"github.com/spigell/job-portal/internal/portal"
	"github.com/spigell/job-portal/internal/usage"
)

const generateAction = "generate"

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Send one prompt to the configured provider and print the normalized reply",
	Long: "Send one prompt to the configured provider and print the normalized reply.\n" +
		"The prompt is read from stdin when no argument is given.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		generate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("system", "s", "", "system prompt (default is the chat persona of --role)")
	generateCmd.Flags().StringP("role", "r", string(portal.RoleCandidate), "persona used when --system is empty")
	generateCmd.Flags().String("actor", "cli", "actor id stored with the usage record")
}

func generate(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	log, _, a := bootstrap(ctx, generateAction)
	defer a.close()

	text, err := promptText(args, os.Stdin)
	if err != nil {
		log.Fatal("reading the prompt", zap.Error(err))
	}

	system, _ := cmd.Flags().GetString("system")
	if strings.TrimSpace(system) == "" {
		role, _ := cmd.Flags().GetString("role")
		system = assistant.SystemPrompt(portal.UserRole(role))
	}
	actor, _ := cmd.Flags().GetString("actor")

	result := a.ai.Generate(ctx, ai.UserRequest(system, text))
	a.recorder.Record(ctx, usage.EntryFromResult(actor, generateAction, string(a.ai.Kind()), result))

	if !result.Success {
		log.Fatal("generation failed", zap.String("error", result.Error))
	}

	out := map[string]any{
		"result": normalize.Parse(result.Content, normalize.WithInputSize(len(text))).AsMap(),
		"meta": assistant.Meta{
			Model:     result.Model,
			Usage:     result.Usage,
			LatencyMS: result.LatencyMS,
		},
	}

	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatal("encoding the reply", zap.Error(err))
	}
	fmt.Println(string(pretty))
}

func promptText(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("prompt is empty")
	}
	return text, nil
}
