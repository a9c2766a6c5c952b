// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/mission-copilot/internal/copilot"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive copilot session",
	Long: `Chat opens a conversation on the terminal. Each line is one question;
exit or quit ends the session. The conversation is not saved.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	return chatLoop(cmd.Context(), copilot.NewConversation(a.cascade), os.Stdin, os.Stdout)
}

var (
	userPrompt     = color.New(color.FgCyan, color.Bold).SprintFunc()
	assistantLabel = color.New(color.FgGreen, color.Bold).SprintFunc()
	errorLabel     = color.New(color.FgRed).SprintFunc()
)

// chatLoop reads questions from in until EOF or an exit command.
func chatLoop(ctx context.Context, conv *copilot.Conversation, in io.Reader, out io.Writer) error {
	for _, m := range conv.Messages() {
		fmt.Fprintf(out, "%s %s\n", assistantLabel("copilot>"), m.Content)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, userPrompt("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "exit", "quit":
			return nil
		}

		res, err := conv.Submit(ctx, line)
		if errors.Is(err, copilot.ErrEmptyMessage) {
			continue
		}
		if err != nil {
			return err
		}
		if res.Err != nil {
			fmt.Fprintf(out, "%s %s\n", assistantLabel("copilot>"), errorLabel(res.Reply))
			continue
		}
		fmt.Fprintf(out, "%s %s\n", assistantLabel("copilot>"), res.Reply)
	}
}
