// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mission-copilot/internal/copilot"
)

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Answer one question and exit",
	Long: `Ask runs a single question through the answer cascade and prints the
reply. A catalog error is printed as the reply and also makes the command
exit non-zero.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "print the reply, intent, stage and sources as JSON")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.cascade.Answer(cmd.Context(), strings.Join(args, " "))

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if err := printResult(os.Stdout, res, jsonOutput); err != nil {
		return err
	}
	return res.Err
}

// askResult is the JSON shape of an answered question.
type askResult struct {
	Reply   string   `json:"reply"`
	Intent  string   `json:"intent"`
	Stage   string   `json:"stage"`
	Sources []int64  `json:"sources,omitempty"`
	Papers  []string `json:"papers,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func printResult(w io.Writer, res copilot.Result, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprintln(w, res.Reply)
		return err
	}

	out := askResult{Reply: res.Reply, Intent: string(res.Intent), Stage: string(res.Stage)}
	for _, s := range res.Sources {
		out.Sources = append(out.Sources, s.ID)
	}
	for _, p := range res.Papers {
		out.Papers = append(out.Papers, p.Title)
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
