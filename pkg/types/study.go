// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the mission copilot.
package types

// StudyType is the organism class a study was run on.
type StudyType string

const (
	StudyAnimal    StudyType = "animal"
	StudyPlant     StudyType = "plant"
	StudyHuman     StudyType = "human"
	StudyMicrobial StudyType = "microbial"
)

// Outcome is the overall direction of a study's findings.
type Outcome string

const (
	OutcomePositive      Outcome = "positive"
	OutcomeNegative      Outcome = "negative"
	OutcomeInconclusive  Outcome = "inconclusive"
	OutcomeContradictory Outcome = "contradictory"
)

// Study is one record of the bioscience catalog. The catalog store owns it;
// the copilot only reads it.
type Study struct {
	ID       int64     `json:"id" yaml:"id"`
	Title    string    `json:"title" yaml:"title"`
	Year     int       `json:"year" yaml:"year"`
	Type     StudyType `json:"type" yaml:"type"`
	Mission  string    `json:"mission" yaml:"mission"`
	Keyword  string    `json:"keyword" yaml:"keyword"`
	Outcome  Outcome   `json:"outcome" yaml:"outcome"`
	Summary  string    `json:"summary" yaml:"summary"`
	Abstract string    `json:"abstract" yaml:"abstract"`

	// Tags keep their source order.
	Tags []string `json:"tags" yaml:"tags"`
}

// StudyQuery is a read against the catalog. Results are always ordered by
// year, newest first.
type StudyQuery struct {
	// Year, Type, Outcome and Mission are equality filters; zero values are ignored.
	Year    int
	Type    StudyType
	Outcome Outcome
	Mission string

	// MaxYear keeps studies published in or before the given year.
	MaxYear int

	// Contains lists substrings matched case-insensitively against title,
	// summary, abstract and keyword. A study matches when any term is found
	// in any of those fields.
	Contains []string

	// Limit caps the number of rows. Zero means no limit.
	Limit int
}
