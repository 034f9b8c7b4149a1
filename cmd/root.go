// Package cmd wires the command line interface.
//
// Each subcommand lives in its own file and registers itself in init.
// Running the binary with no subcommand starts the interactive chat.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tutor",
	Short: "An NCERT tutor that answers from your textbook index",
	Long: `tutor answers student questions for NCERT classes 6 to 12 using a
pre-built textbook passage index. Follow-up questions are rewritten into
standalone search queries, matched against the index, and answered with
the retrieved passages as grounding.

Running tutor with no arguments starts an interactive chat.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// checkRequiredEnv verifies GEMINI_API_KEY is set before any command
// that talks to the model. Genkit reads the key directly.
func checkRequiredEnv() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "To set your API key:")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Get your API key at: https://ai.google.dev/")
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	return nil
}
