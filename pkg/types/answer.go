// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RankedPaper is a document returned by the external answer service. Only
// Title is guaranteed; the text fields may be empty.
type RankedPaper struct {
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	Abstract   string `json:"abstract,omitempty"`
	Conclusion string `json:"conclusion,omitempty"`
	Summary    string `json:"summary,omitempty"`
}

// AnswerResponse is the payload of GET /answer.
type AnswerResponse struct {
	Query   string        `json:"query,omitempty"`
	Answer  string        `json:"answer,omitempty"`
	Sources []RankedPaper `json:"sources,omitempty"`
}

// QueryResponse is the payload of GET /query.
type QueryResponse struct {
	Query   string        `json:"query,omitempty"`
	Results []RankedPaper `json:"results,omitempty"`
}
