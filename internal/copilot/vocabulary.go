// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package copilot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Vocabulary holds the fixed word tables the cascade matches against. All
// entries are compared with normalized (lower-case) text.
type Vocabulary struct {
	// Greetings are the single-word salutations recognized by both the
	// greeting short-circuit and the greeting intent.
	Greetings []string `yaml:"greetings"`

	// SmallTalk extends Greetings for the short-circuit only.
	SmallTalk []string `yaml:"small_talk"`

	// DefinitionCues, YesNoLeads and CompareCues drive intent classification.
	DefinitionCues []string `yaml:"definition_cues"`
	YesNoLeads     []string `yaml:"yes_no_leads"`
	CompareCues    []string `yaml:"compare_cues"`

	// Missions are the mission names that mark a paper lookup.
	Missions []string `yaml:"missions"`

	// StopWords are dropped from tokenized search.
	StopWords []string `yaml:"stop_words"`

	// OffTopic phrases identify chit-chat that has no catalog answer.
	OffTopic []string `yaml:"off_topic"`
}

// DefaultVocabulary returns the built-in tables.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Greetings: []string{
			"hi", "hello", "hey", "yo", "salaam", "salam",
			"bonjour", "hola", "ciao", "hallo",
		},
		SmallTalk: []string{
			"morning", "evening", "sup", "how are you", "what's up", "whats up",
		},
		DefinitionCues: []string{"what is", "define", "explain"},
		YesNoLeads:     []string{"is", "are", "does", "do", "can", "will", "should"},
		CompareCues:    []string{"compare", "vs", "versus"},
		Missions:       []string{"iss", "shuttle", "mars analog", "ground sim"},
		StopWords: []string{
			"the", "and", "for", "with", "from", "that", "this",
			"into", "over", "under", "space", "study", "studies",
		},
		OffTopic: []string{
			"time", "date", "weather", "your name", "who are you",
			"what are you", "resources", "source", "hello", "hi", "hey",
		},
	}
}

// LoadVocabulary reads a YAML file and overlays every non-empty table onto
// the defaults. An empty path returns the defaults.
func LoadVocabulary(path string) (Vocabulary, error) {
	v := DefaultVocabulary()
	if path == "" {
		return v, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return v, fmt.Errorf("opening vocabulary: %w", err)
	}
	defer f.Close()
	return overlayVocabulary(v, f)
}

func overlayVocabulary(base Vocabulary, r io.Reader) (Vocabulary, error) {
	var override Vocabulary
	if err := yaml.NewDecoder(r).Decode(&override); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("parsing vocabulary: %w", err)
	}
	pick := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	pick(&base.Greetings, override.Greetings)
	pick(&base.SmallTalk, override.SmallTalk)
	pick(&base.DefinitionCues, override.DefinitionCues)
	pick(&base.YesNoLeads, override.YesNoLeads)
	pick(&base.CompareCues, override.CompareCues)
	pick(&base.Missions, override.Missions)
	pick(&base.StopWords, override.StopWords)
	pick(&base.OffTopic, override.OffTopic)
	return base, nil
}

// matchers is a Vocabulary compiled into patterns.
type matchers struct {
	greetingOnly *regexp.Regexp // short-circuit: greetings and small talk
	greeting     *regexp.Regexp // intent: greetings only
	definition   *regexp.Regexp
	yesNo        *regexp.Regexp
	compare      *regexp.Regexp
	paperLookup  *regexp.Regexp
	offTopic     *regexp.Regexp
	stopWords    map[string]bool
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

func (v Vocabulary) compile() (*matchers, error) {
	if len(v.Greetings) == 0 {
		return nil, errors.New("vocabulary has no greetings")
	}
	m := &matchers{stopWords: make(map[string]bool, len(v.StopWords))}
	for _, w := range v.StopWords {
		m.stopWords[strings.ToLower(w)] = true
	}

	var err error
	build := func(dst **regexp.Regexp, pattern string) {
		if err != nil {
			return
		}
		*dst, err = regexp.Compile(pattern)
	}

	greetings := alternation(v.Greetings)
	build(&m.greetingOnly, `^(`+alternation(append(append([]string{}, v.Greetings...), v.SmallTalk...))+`)[.!\s]*$`)
	build(&m.greeting, `^(`+greetings+`)[\s.!]*$`)
	build(&m.definition, wordPattern(v.DefinitionCues))
	build(&m.yesNo, `^(`+alternation(v.YesNoLeads)+`)\b`)
	build(&m.compare, wordPattern(v.CompareCues))
	build(&m.paperLookup, `\b(`+alternation(v.Missions)+`)\b|`+yearPattern.String())
	build(&m.offTopic, wordPattern(v.OffTopic))
	if err != nil {
		return nil, fmt.Errorf("compiling vocabulary: %w", err)
	}
	return m, nil
}

// alternation quotes and joins phrases, longest first so that multi-word
// phrases win over their prefixes. An empty list yields a pattern that
// never matches.
func alternation(phrases []string) string {
	quoted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			quoted = append(quoted, regexp.QuoteMeta(p))
		}
	}
	if len(quoted) == 0 {
		return `[^\s\S]`
	}
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return strings.Join(quoted, "|")
}

func wordPattern(phrases []string) string {
	return `\b(` + alternation(phrases) + `)\b`
}
