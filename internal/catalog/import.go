// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mission-copilot/pkg/types"
)

// ImportSummary holds counts from an import run.
type ImportSummary struct {
	Imported int
	Skipped  int
}

// Total returns the number of records processed.
func (s ImportSummary) Total() int {
	return s.Imported + s.Skipped
}

var validTypes = map[types.StudyType]bool{
	types.StudyAnimal: true, types.StudyPlant: true,
	types.StudyHuman: true, types.StudyMicrobial: true,
}

var validOutcomes = map[types.Outcome]bool{
	types.OutcomePositive: true, types.OutcomeNegative: true,
	types.OutcomeInconclusive: true, types.OutcomeContradictory: true,
}

func validateStudy(st types.Study) error {
	if strings.TrimSpace(st.Title) == "" {
		return errors.New("title is empty")
	}
	if st.Year < 1900 || st.Year > 2099 {
		return fmt.Errorf("year %d out of range", st.Year)
	}
	if st.Type != "" && !validTypes[st.Type] {
		return fmt.Errorf("unknown type %q", st.Type)
	}
	if st.Outcome != "" && !validOutcomes[st.Outcome] {
		return fmt.Errorf("unknown outcome %q", st.Outcome)
	}
	return nil
}

// Import upserts studies in a single transaction. Invalid records are
// reported to w and skipped. Records with a zero ID are assigned the next
// free ID.
func (s *Store) Import(ctx context.Context, studies []types.Study, w io.Writer) (ImportSummary, error) {
	var summary ImportSummary

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var nextID int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM studies`).Scan(&nextID); err != nil {
		return summary, fmt.Errorf("reading max id: %w", err)
	}
	for _, st := range studies {
		nextID = max(nextID, st.ID)
	}

	for i, st := range studies {
		if err := validateStudy(st); err != nil {
			fmt.Fprintf(w, "skipped record %d (%q): %v\n", i+1, st.Title, err)
			summary.Skipped++
			continue
		}
		if st.ID == 0 {
			nextID++
			st.ID = nextID
		}

		query, args, err := s.upsert(st)
		if err != nil {
			return summary, fmt.Errorf("building upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return summary, fmt.Errorf("upserting study %d: %w", st.ID, err)
		}
		summary.Imported++
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing import: %w", err)
	}
	fmt.Fprintf(w, "imported: %d, skipped: %d\n", summary.Imported, summary.Skipped)
	return summary, nil
}

func (s *Store) upsert(st types.Study) (string, []any, error) {
	tags := st.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return "", nil, err
	}
	return sq.Insert(studiesTable).
		Columns(studyColumns...).
		Values(st.ID, st.Title, st.Year, string(st.Type), st.Mission, st.Keyword,
			string(st.Outcome), st.Summary, st.Abstract, string(tagsJSON)).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, year=excluded.year, type=excluded.type,
			mission=excluded.mission, keyword=excluded.keyword, outcome=excluded.outcome,
			summary=excluded.summary, abstract=excluded.abstract, tags=excluded.tags`).
		PlaceholderFormat(s.placeholder).
		ToSql()
}

// LoadYAMLFile reads a YAML list of studies from path.
func LoadYAMLFile(path string) ([]types.Study, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadYAML(f)
}

// LoadYAML decodes a YAML list of studies.
func LoadYAML(r io.Reader) ([]types.Study, error) {
	var studies []types.Study
	if err := yaml.NewDecoder(r).Decode(&studies); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing studies YAML: %w", err)
	}
	return studies, nil
}

// LoadCSVFile reads a paper-summaries CSV from path.
func LoadCSVFile(path string) ([]types.Study, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCSV(f)
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// LoadCSV converts a paper-summaries CSV (Title, URL, Abstract, Conclusion
// columns, header names case-insensitive) into studies. The catalog fields
// the CSV lacks are derived from the text: year from the first year in the
// abstract, organism type from the title, mission and outcome from keywords.
// Rows are numbered from 1 in file order.
func LoadCSV(r io.Reader) ([]types.Study, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"title", "abstract", "conclusion"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("CSV must contain Title, Abstract, Conclusion columns")
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var studies []types.Study
	for idx := 0; ; idx++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", idx+2, err)
		}
		title := field(rec, "title")
		if title == "" {
			continue
		}
		studies = append(studies, studyFromCSV(int64(idx+1), idx, title, field(rec, "abstract"), field(rec, "conclusion")))
	}
	return studies, nil
}

func studyFromCSV(id int64, idx int, title, abstract, conclusion string) types.Study {
	year := 2018 + idx%7
	if m := yearPattern.FindString(abstract); m != "" {
		year, _ = strconv.Atoi(m)
	}

	summary := conclusion
	if summary == "" {
		summary = abstract
	}
	summary = truncateRunes(summary, 280)

	keyword := strings.TrimSpace(strings.SplitN(title, ":", 2)[0])
	if keyword == "" {
		keyword = "space biology"
	}
	keyword = truncateRunes(keyword, 60)

	lowerTitle := strings.ToLower(title)
	studyType := types.StudyHuman
	switch {
	case strings.Contains(lowerTitle, "plant"):
		studyType = types.StudyPlant
	case strings.Contains(lowerTitle, "mouse"), strings.Contains(lowerTitle, "mice"):
		studyType = types.StudyAnimal
	}

	lowerAbstract := strings.ToLower(abstract)
	mission := "Ground Sim"
	switch {
	case strings.Contains(lowerAbstract, "iss"):
		mission = "ISS"
	case strings.Contains(lowerAbstract, "shuttle"):
		mission = "Shuttle"
	case strings.Contains(lowerAbstract, "mars"):
		mission = "Mars Analog"
	}

	lowerConclusion := strings.ToLower(conclusion)
	outcome := types.OutcomeInconclusive
	switch {
	case strings.Contains(lowerConclusion, "increase"), strings.Contains(lowerConclusion, "improve"):
		outcome = types.OutcomePositive
	case strings.Contains(lowerConclusion, "decrease"), strings.Contains(lowerConclusion, "reduce"):
		outcome = types.OutcomeNegative
	}

	if abstract == "" {
		abstract = summary
	}

	return types.Study{
		ID:       id,
		Title:    title,
		Year:     year,
		Type:     studyType,
		Mission:  mission,
		Keyword:  keyword,
		Outcome:  outcome,
		Summary:  summary,
		Abstract: abstract,
		Tags:     []string{keyword, mission, string(outcome), "from-csv"},
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
