package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/spigell/job-portal/internal/ai"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the supported ai providers",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s (%s)\n", app, version, runtime.Version())
		fmt.Fprintf(cmd.OutOrStdout(), "ai providers: %s, %s, %s, %s, %s\n",
			ai.KindMock, ai.KindClaude, ai.KindOpenAI, ai.KindOpenRouter, ai.KindGemini)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
