// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package copilot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/mission-copilot/pkg/types"
)

func TestFormatStudies(t *testing.T) {
	studies := catalogFixture()[:2]
	body := "• Radiation Shielding Study (2023, ISS) – Shielding reduced dose.\n" +
		"• Arabidopsis Root Growth (2019, ISS) – Roots grew sideways."

	tests := []struct {
		intent Intent
		lead   string
	}{
		{IntentDefinition, "Here's what the studies indicate:"},
		{IntentYesNo, "Relevant evidence:"},
		{IntentCompare, "Comparison sources:"},
		{IntentGeneric, "Here are 2 relevant studies:"},
		{IntentPaperLookup, "Here are 2 relevant studies:"},
		{IntentGreeting, "Here are 2 relevant studies:"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.lead+"\n"+body, FormatStudies(tt.intent, studies), "intent %s", tt.intent)
	}
}

func TestFormatRanked(t *testing.T) {
	papers := []types.RankedPaper{
		{Title: "A", Abstract: "abstract a", Conclusion: "conclusion a", Summary: "summary a"},
		{Title: "B", Conclusion: "conclusion b"},
	}

	assert.Equal(t, "Here's what the papers indicate:\n• A – abstract a\n• B – conclusion b",
		FormatRanked(IntentDefinition, papers))
	assert.Equal(t, "Relevant evidence:\n• A – conclusion a\n• B – conclusion b",
		FormatRanked(IntentYesNo, papers))
	assert.Equal(t, "Comparison sources:\n• A – summary a\n• B – conclusion b",
		FormatRanked(IntentCompare, papers))
	assert.Equal(t, "From local knowledge (RAG):\n• A – summary a\n• B – conclusion b",
		FormatRanked(IntentGeneric, papers))
}

func TestFormatRankedTruncatesExcerpt(t *testing.T) {
	long := strings.Repeat("é", 200)
	got := FormatRanked(IntentDefinition, []types.RankedPaper{{Title: "Long", Abstract: long}})
	assert.Equal(t, "Here's what the papers indicate:\n• Long – "+strings.Repeat("é", 160), got)

	got = FormatRanked(IntentGeneric, []types.RankedPaper{{Title: "Long", Summary: long}})
	assert.Equal(t, "From local knowledge (RAG):\n• Long – "+strings.Repeat("é", 180), got)
}

func TestFormatAnswer(t *testing.T) {
	assert.Equal(t, "Bone density drops.", FormatAnswer(&types.AnswerResponse{Answer: "Bone density drops."}))
	assert.Equal(t, "Bone density drops.\nSources:\n• Bone Study\n• Rodent Study",
		FormatAnswer(&types.AnswerResponse{
			Answer:  "Bone density drops.",
			Sources: []types.RankedPaper{{Title: "Bone Study"}, {Title: "Rodent Study"}},
		}))
}

func TestWithListing(t *testing.T) {
	assert.Equal(t, TipsReply, withListing(TipsReply, "Recent studies:", nil))
	assert.Equal(t, TipsReply+"\nRecent studies:\n• Bone Loss in Rodents (2021, Shuttle) – Bone density fell.",
		withListing(TipsReply, "Recent studies:", catalogFixture()[2:]))
}
