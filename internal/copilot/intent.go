// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package copilot

import "regexp"

// Intent is a coarse label for a message. It selects the reply phrasing
// and never changes which records are retrieved.
type Intent string

const (
	IntentGreeting    Intent = "greeting"
	IntentDefinition  Intent = "definition"
	IntentYesNo       Intent = "yesno"
	IntentCompare     Intent = "compare"
	IntentPaperLookup Intent = "paper_lookup"
	IntentGeneric     Intent = "generic"
)

type intentRule struct {
	intent  Intent
	pattern *regexp.Regexp
}

// Classifier assigns an Intent by testing rules in priority order. The
// first matching rule wins; IntentGeneric is returned when none match.
type Classifier struct {
	rules []intentRule
}

func newClassifier(m *matchers) *Classifier {
	return &Classifier{rules: []intentRule{
		{IntentGreeting, m.greeting},
		{IntentDefinition, m.definition},
		{IntentYesNo, m.yesNo},
		{IntentCompare, m.compare},
		{IntentPaperLookup, m.paperLookup},
	}}
}

// NewClassifier compiles v into a classifier.
func NewClassifier(v Vocabulary) (*Classifier, error) {
	m, err := v.compile()
	if err != nil {
		return nil, err
	}
	return newClassifier(m), nil
}

// Classify labels normalized text.
func (c *Classifier) Classify(normalized string) Intent {
	for _, r := range c.rules {
		if r.pattern.MatchString(normalized) {
			return r.intent
		}
	}
	return IntentGeneric
}

// Priority lists the intents in the order they are tested, ending with the
// default.
func (c *Classifier) Priority() []Intent {
	out := make([]Intent, 0, len(c.rules)+1)
	for _, r := range c.rules {
		out = append(out, r.intent)
	}
	return append(out, IntentGeneric)
}
