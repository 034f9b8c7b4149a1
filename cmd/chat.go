package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vedikagupta0/ncert-ai-tutor/internal/app"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/config"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/conversation"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/tutor"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive tutoring chat",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
	if err := checkRequiredEnv(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			a.Logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	return chatLoop(ctx, a.Registry, a.Tutor, os.Stdin, os.Stdout)
}

// turnRunner is the orchestrator surface the chat loop needs.
type turnRunner interface {
	Answer(ctx context.Context, conversationID uuid.UUID, question string) (string, error)
}

// chatLoop reads questions and commands until EOF or /exit.
func chatLoop(ctx context.Context, reg *conversation.Registry, runner turnRunner, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "NCERT tutor ready. Ask a question, or /help for commands.")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		fmt.Fprintf(out, "\n[%s] > ", reg.Active().Title())
		if !scanner.Scan() {
			fmt.Fprintln(out, "\nGoodbye!")
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if done := runCommand(reg, out, line); done {
				return nil
			}
			continue
		}

		answer, err := runner.Answer(ctx, reg.Active().ID, line)
		switch {
		case errors.Is(err, tutor.ErrGenerationFailed):
			fmt.Fprintln(out, "The tutor could not generate an answer. Please try again.")
		case err != nil:
			fmt.Fprintf(out, "Error: %v\n", err)
		default:
			fmt.Fprintln(out, answer)
		}
	}
}

// runCommand handles a slash command. Returns true when the loop should
// exit.
func runCommand(reg *conversation.Registry, out io.Writer, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/exit", "/quit":
		fmt.Fprintln(out, "Goodbye!")
		return true

	case "/help":
		fmt.Fprintln(out, "Commands:")
		fmt.Fprintln(out, "  /new [title]     Start a new conversation")
		fmt.Fprintln(out, "  /list            List conversations")
		fmt.Fprintln(out, "  /switch <n>      Switch to conversation number n")
		fmt.Fprintln(out, "  /title <text>    Rename the current conversation")
		fmt.Fprintln(out, "  /export <path>   Save the transcript to a file")
		fmt.Fprintln(out, "  /exit            Leave the chat")

	case "/new":
		c := reg.Create(arg)
		fmt.Fprintf(out, "Started %q.\n", c.Title())

	case "/list":
		activeID := reg.Active().ID
		for i, c := range reg.List() {
			marker := " "
			if c.ID == activeID {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %d. %s (%d turns)\n", marker, i+1, c.Title(), c.History.Len())
		}

	case "/switch":
		convs := reg.List()
		idx := 0
		if _, err := fmt.Sscanf(arg, "%d", &idx); err != nil || idx < 1 || idx > len(convs) {
			fmt.Fprintf(out, "Usage: /switch <1-%d>\n", len(convs))
			return false
		}
		if err := reg.Switch(convs[idx-1].ID); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return false
		}
		fmt.Fprintf(out, "Switched to %q.\n", convs[idx-1].Title())

	case "/title":
		if arg == "" {
			fmt.Fprintln(out, "Usage: /title <text>")
			return false
		}
		if err := reg.SetTitle(reg.Active().ID, arg); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return false
		}
		fmt.Fprintf(out, "Renamed to %q.\n", arg)

	case "/export":
		if arg == "" {
			fmt.Fprintln(out, "Usage: /export <path>")
			return false
		}
		transcript := reg.Active().History.RenderAll()
		if err := os.WriteFile(arg, []byte(transcript+"\n"), 0o600); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return false
		}
		fmt.Fprintf(out, "Saved transcript to %s.\n", arg)

	default:
		fmt.Fprintf(out, "Unknown command %q. Try /help.\n", cmd)
	}
	return false
}
