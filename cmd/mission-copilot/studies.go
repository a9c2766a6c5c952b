// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mission-copilot/internal/catalog"
	"github.com/pdiddy/mission-copilot/pkg/types"
)

var studiesCmd = &cobra.Command{
	Use:   "studies",
	Short: "Manage the study catalog (import, list, export)",
	Long: `Studies manages the catalog the copilot answers from. Import loads a
YAML file or a paper-summaries CSV, list filters records the way the
dashboard does, and export writes the catalog back out.`,
}

// --- import subcommand ---

var studiesImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Load studies from a YAML or CSV file",
	Long: `Import reads studies from a .yaml/.yml file or a .csv export with
title, abstract and conclusion columns, and upserts them by ID. CSV rows
get IDs from their row number; YAML records without an ID are appended.`,
	Args: cobra.ExactArgs(1),
	RunE: runStudiesImport,
}

func runStudiesImport(cmd *cobra.Command, args []string) error {
	studies, err := loadStudiesFile(args[0])
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Import(cmd.Context(), studies, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Imported == 0 && summary.Total() > 0 {
		return fmt.Errorf("all %d record(s) were rejected", summary.Total())
	}
	return nil
}

func loadStudiesFile(path string) ([]types.Study, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return catalog.LoadCSVFile(path)
	case ".yaml", ".yml":
		return catalog.LoadYAMLFile(path)
	default:
		return nil, fmt.Errorf("unsupported file %s: use .csv, .yaml or .yml", path)
	}
}

// --- list subcommand ---

var studiesListCmd = &cobra.Command{
	Use:   "list [text]",
	Short: "List studies matching filters",
	Long: `List prints catalog records newest first. Free text is matched
case-insensitively against title, summary, abstract and keyword.`,
	RunE: runStudiesList,
}

func runStudiesList(cmd *cobra.Command, args []string) error {
	q := studyQueryFromFlags(cmd, args)

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	studies, err := store.Search(cmd.Context(), q)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatStudies(os.Stdout, studies, jsonOutput)
}

func studyQueryFromFlags(cmd *cobra.Command, args []string) types.StudyQuery {
	year, _ := cmd.Flags().GetInt("year")
	maxYear, _ := cmd.Flags().GetInt("max-year")
	typ, _ := cmd.Flags().GetString("type")
	outcome, _ := cmd.Flags().GetString("outcome")
	mission, _ := cmd.Flags().GetString("mission")
	limit, _ := cmd.Flags().GetInt("limit")

	q := types.StudyQuery{
		Year:    year,
		MaxYear: maxYear,
		Type:    types.StudyType(strings.ToLower(typ)),
		Outcome: types.Outcome(strings.ToLower(outcome)),
		Mission: mission,
		Limit:   limit,
	}
	if text := strings.TrimSpace(strings.Join(args, " ")); text != "" {
		q.Contains = []string{text}
	}
	return q
}

func formatStudies(w io.Writer, studies []types.Study, jsonOutput bool) error {
	if jsonOutput {
		if studies == nil {
			studies = []types.Study{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(studies)
	}

	if len(studies) == 0 {
		fmt.Fprintln(w, "No studies found.")
		return nil
	}

	fmt.Fprintf(w, "%-5s  %-4s  %-10s  %-12s  %-13s  %s\n",
		"ID", "Year", "Type", "Mission", "Outcome", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, s := range studies {
		title := s.Title
		if r := []rune(title); len(r) > 50 {
			title = string(r[:47]) + "..."
		}
		fmt.Fprintf(w, "%-5d  %-4d  %-10s  %-12s  %-13s  %s\n",
			s.ID, s.Year, s.Type, s.Mission, s.Outcome, title)
	}
	fmt.Fprintf(w, "\n%d stud%s\n", len(studies), plural(len(studies), "y", "ies"))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// --- export subcommand ---

var studiesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the catalog as YAML or JSON",
	Long: `Export writes every study matching the filters to stdout or --out.
A YAML export can be imported again unchanged.`,
	RunE: runStudiesExport,
}

func runStudiesExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")
	q := studyQueryFromFlags(cmd, args)
	q.Limit = 0

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var w io.Writer = os.Stdout
	if outPath != "" {
		if dir := filepath.Dir(outPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}
		}
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = store.ExportYAML(cmd.Context(), w, q)
	case "json":
		err = store.ExportJSON(cmd.Context(), w, q)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(os.Stderr, "Exported catalog to %s\n", outPath)
	}
	return nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Int("year", 0, "filter by publication year")
	cmd.Flags().Int("max-year", 0, "only studies published in or before this year")
	cmd.Flags().String("type", "", "filter by type: animal, plant, human, microbial")
	cmd.Flags().String("outcome", "", "filter by outcome: positive, negative, inconclusive, contradictory")
	cmd.Flags().String("mission", "", "filter by mission (e.g. ISS, Shuttle)")
}

func init() {
	addFilterFlags(studiesListCmd)
	studiesListCmd.Flags().Int("limit", 20, "maximum number of studies to list")
	studiesListCmd.Flags().Bool("json", false, "output studies as JSON")

	addFilterFlags(studiesExportCmd)
	studiesExportCmd.Flags().String("format", "yaml", "output format: yaml or json")
	studiesExportCmd.Flags().String("out", "", "output file (default: stdout)")

	studiesCmd.AddCommand(studiesImportCmd)
	studiesCmd.AddCommand(studiesListCmd)
	studiesCmd.AddCommand(studiesExportCmd)
	rootCmd.AddCommand(studiesCmd)
}
