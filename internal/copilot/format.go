// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package copilot

import (
	"fmt"
	"strings"

	"github.com/pdiddy/mission-copilot/pkg/types"
)

// Fixed replies.
const (
	WelcomeMessage = "Ask me about NASA bioscience studies. Try 'radiation countermeasures on ISS'."

	GreetingReply = "Hello! I can answer questions about NASA bioscience publications. " +
		"Try asking about a topic, mission, or year (e.g., 'radiation ISS 2023' or 'plant growth microgravity')."

	TipsReply = "Try asking about topics, missions, or years (e.g., 'radiation ISS 2023')."

	OffTopicReply = "I'm your NASA bioscience copilot. I answer using the publications loaded into the study catalog. " +
		"Ask me about topics, missions (ISS, Shuttle, Mars Analog), or years."

	NoMatchReply = "I couldn't find relevant studies. Try keywords like 'radiation', 'plant growth', 'microgravity', " +
		"add a mission (ISS, Shuttle), or include a year (e.g., 2019)."

	errorReplyPrefix = "Error querying studies: "
)

// StudyBullet renders one catalog record.
func StudyBullet(s types.Study) string {
	return fmt.Sprintf("• %s (%d, %s) – %s", s.Title, s.Year, s.Mission, s.Summary)
}

func studyBullets(studies []types.Study) string {
	lines := make([]string, len(studies))
	for i, s := range studies {
		lines[i] = StudyBullet(s)
	}
	return strings.Join(lines, "\n")
}

// FormatStudies renders catalog search results under an intent-specific lead.
func FormatStudies(intent Intent, studies []types.Study) string {
	var lead string
	switch intent {
	case IntentDefinition:
		lead = "Here's what the studies indicate:"
	case IntentYesNo:
		lead = "Relevant evidence:"
	case IntentCompare:
		lead = "Comparison sources:"
	default:
		lead = fmt.Sprintf("Here are %d relevant studies:", len(studies))
	}
	return lead + "\n" + studyBullets(studies)
}

// withListing appends a titled listing to msg when studies is non-empty.
func withListing(msg, title string, studies []types.Study) string {
	if len(studies) == 0 {
		return msg
	}
	return msg + "\n" + title + "\n" + studyBullets(studies)
}

// rankedTemplate is the phrasing of answer-service documents for one intent:
// a lead line, the text fields tried in order for the excerpt, and the
// excerpt length in runes.
type rankedTemplate struct {
	lead    string
	fields  []func(types.RankedPaper) string
	maxRune int
}

var (
	abstractOf   = func(p types.RankedPaper) string { return p.Abstract }
	conclusionOf = func(p types.RankedPaper) string { return p.Conclusion }
	summaryOf    = func(p types.RankedPaper) string { return p.Summary }
)

var rankedTemplates = map[Intent]rankedTemplate{
	IntentDefinition: {"Here's what the papers indicate:", []func(types.RankedPaper) string{abstractOf, conclusionOf}, 160},
	IntentYesNo:      {"Relevant evidence:", []func(types.RankedPaper) string{conclusionOf, abstractOf}, 140},
	IntentCompare:    {"Comparison sources:", []func(types.RankedPaper) string{summaryOf, abstractOf, conclusionOf}, 140},
}

var defaultRanked = rankedTemplate{
	"From local knowledge (RAG):", []func(types.RankedPaper) string{summaryOf, abstractOf, conclusionOf}, 180,
}

// FormatRanked renders answer-service documents under an intent-specific lead.
func FormatRanked(intent Intent, papers []types.RankedPaper) string {
	tmpl, ok := rankedTemplates[intent]
	if !ok {
		tmpl = defaultRanked
	}
	lines := make([]string, len(papers))
	for i, p := range papers {
		var excerpt string
		for _, f := range tmpl.fields {
			if excerpt = f(p); excerpt != "" {
				break
			}
		}
		lines[i] = fmt.Sprintf("• %s – %s", p.Title, truncateRunes(excerpt, tmpl.maxRune))
	}
	return tmpl.lead + "\n" + strings.Join(lines, "\n")
}

// FormatAnswer renders a synthesized answer followed by its cited sources.
func FormatAnswer(resp *types.AnswerResponse) string {
	if len(resp.Sources) == 0 {
		return resp.Answer
	}
	lines := make([]string, len(resp.Sources))
	for i, s := range resp.Sources {
		lines[i] = "• " + s.Title
	}
	return resp.Answer + "\nSources:\n" + strings.Join(lines, "\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
