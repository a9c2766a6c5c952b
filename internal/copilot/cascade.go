// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package copilot answers free-text questions about the study catalog.
//
// A Cascade runs an ordered list of stages against one message. Each stage
// either produces the reply or passes, and the first stage to reply ends
// the run. Answer-service failures are silent and fall through to local
// search; catalog failures end the run with an error reply.
package copilot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/pdiddy/mission-copilot/internal/httputil"
	"github.com/pdiddy/mission-copilot/pkg/types"
)

// StudySearcher is the read side of the study catalog.
type StudySearcher interface {
	Search(ctx context.Context, q types.StudyQuery) ([]types.Study, error)
}

// AnswerService is the optional external answer service.
type AnswerService interface {
	Answer(ctx context.Context, q string, k int, intent string) (*types.AnswerResponse, error)
	Query(ctx context.Context, q string, k int) (*types.QueryResponse, error)
}

// Stage names the cascade step that produced a reply.
type Stage string

const (
	StageGreeting       Stage = "greeting"
	StageShortInput     Stage = "short_input"
	StageNoContent      Stage = "no_content"
	StageExternalAnswer Stage = "external_answer"
	StageExternalQuery  Stage = "external_query"
	StageStructured     Stage = "structured"
	StageTokenized      Stage = "tokenized"
	StageOffTopic       Stage = "off_topic"
	StageRecent         Stage = "recent"
)

// Result is the outcome of one cascade run.
type Result struct {
	Reply  string
	Intent Intent
	Stage  Stage
	// Sources holds the catalog records the reply was built from.
	Sources []types.Study
	// Papers holds answer-service documents for external replies.
	Papers []types.RankedPaper
	// Err is set when a catalog query failed and Reply is the error message.
	Err error
}

// QueryContext is the per-message state shared by the stages.
type QueryContext struct {
	Raw        string
	Normalized string
	Intent     Intent
	Tokens     []string
	Year       int
}

// Options configures a Cascade. Zero limits fall back to the defaults.
type Options struct {
	Vocabulary Vocabulary
	Limits     types.CascadeConfig
	// TopK is the result-count hint sent to the answer service.
	TopK int
	// StoreTimeout bounds each catalog query. Zero means no extra bound.
	StoreTimeout time.Duration
	Logger       zerolog.Logger
}

type stage struct {
	name Stage
	run  func(ctx context.Context, qc *QueryContext) *Result
}

// Cascade turns one message into one reply.
type Cascade struct {
	store      StudySearcher
	service    AnswerService
	match      *matchers
	classifier *Classifier
	limits     types.CascadeConfig
	topK       int
	timeout    time.Duration
	log        zerolog.Logger
	stages     []stage
}

// New builds a cascade. service may be nil when no answer service is
// configured; the external stage then always passes.
func New(store StudySearcher, service AnswerService, opts Options) (*Cascade, error) {
	if store == nil {
		return nil, errors.New("copilot: study store is required")
	}
	m, err := opts.Vocabulary.compile()
	if err != nil {
		return nil, err
	}

	defaults := types.DefaultCopilotConfig().Cascade
	limits := opts.Limits
	if limits.SearchLimit <= 0 {
		limits.SearchLimit = defaults.SearchLimit
	}
	if limits.RecentLimit <= 0 {
		limits.RecentLimit = defaults.RecentLimit
	}
	if limits.RankedLimit <= 0 {
		limits.RankedLimit = defaults.RankedLimit
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = limits.RankedLimit
	}

	c := &Cascade{
		store:      store,
		service:    service,
		match:      m,
		classifier: newClassifier(m),
		limits:     limits,
		topK:       topK,
		timeout:    opts.StoreTimeout,
		log:        opts.Logger,
	}
	c.stages = []stage{
		{StageGreeting, c.greeting},
		{StageShortInput, c.shortInput},
		{StageNoContent, c.noContent},
		{StageExternalAnswer, c.external},
		{StageStructured, c.structured},
		{StageTokenized, c.tokenized},
		{StageOffTopic, c.offTopic},
		{StageRecent, c.recent},
	}
	return c, nil
}

// Answer runs the stages in order and returns the first reply.
func (c *Cascade) Answer(ctx context.Context, input string) Result {
	normalized := Normalize(input)
	qc := &QueryContext{
		Raw:        input,
		Normalized: normalized,
		Intent:     c.classifier.Classify(normalized),
	}
	for _, st := range c.stages {
		res := st.run(ctx, qc)
		if res == nil {
			continue
		}
		if res.Stage == "" {
			res.Stage = st.name
		}
		res.Intent = qc.Intent
		c.log.Debug().
			Str("stage", string(res.Stage)).
			Str("intent", string(qc.Intent)).
			Int("sources", len(res.Sources)+len(res.Papers)).
			Msg("cascade answered")
		return *res
	}
	return Result{Reply: NoMatchReply, Intent: qc.Intent, Stage: StageRecent}
}

func (c *Cascade) greeting(_ context.Context, qc *QueryContext) *Result {
	if c.match.greetingOnly.MatchString(qc.Normalized) {
		return &Result{Reply: GreetingReply}
	}
	return nil
}

func (c *Cascade) shortInput(ctx context.Context, qc *QueryContext) *Result {
	if utf8.RuneCountInString(strings.TrimSpace(qc.Raw)) >= minTokenLen {
		return nil
	}
	recent := c.recentStudies(ctx)
	return &Result{Reply: withListing(TipsReply, "Recent studies:", recent), Sources: recent}
}

func (c *Cascade) noContent(_ context.Context, qc *QueryContext) *Result {
	if len(contentTokens(qc.Normalized)) == 0 {
		return &Result{Reply: GreetingReply}
	}
	return nil
}

// external asks the answer service for a synthesized answer, then for
// ranked documents. A non-OK status or an empty answer moves on to the
// ranked query; any other failure skips the service entirely.
func (c *Cascade) external(ctx context.Context, qc *QueryContext) *Result {
	if c.service == nil {
		return nil
	}
	ans, err := c.service.Answer(ctx, qc.Normalized, c.topK, string(qc.Intent))
	switch {
	case err == nil && ans != nil && strings.TrimSpace(ans.Answer) != "":
		return &Result{Reply: FormatAnswer(ans), Stage: StageExternalAnswer, Papers: ans.Sources}
	case err != nil:
		c.log.Debug().Err(err).Msg("answer service unavailable")
		var se *httputil.StatusError
		if !errors.As(err, &se) {
			return nil
		}
	}

	res, err := c.service.Query(ctx, qc.Normalized, c.topK)
	if err != nil {
		c.log.Debug().Err(err).Msg("answer service query unavailable")
		return nil
	}
	if res == nil || len(res.Results) == 0 {
		return nil
	}
	top := res.Results
	if len(top) > c.limits.RankedLimit {
		top = top[:c.limits.RankedLimit]
	}
	return &Result{Reply: FormatRanked(qc.Intent, top), Stage: StageExternalQuery, Papers: top}
}

func (c *Cascade) structured(ctx context.Context, qc *QueryContext) *Result {
	term := strings.ReplaceAll(qc.Normalized, "%", "")
	studies, err := c.search(ctx, types.StudyQuery{Contains: []string{term}, Limit: c.limits.SearchLimit})
	if err != nil {
		return errorResult(err)
	}
	if len(studies) == 0 {
		return nil
	}
	return &Result{Reply: FormatStudies(qc.Intent, studies), Sources: studies}
}

func (c *Cascade) tokenized(ctx context.Context, qc *QueryContext) *Result {
	qc.Tokens = significantTokens(qc.Raw, c.match.stopWords)
	qc.Year = yearHint(qc.Raw)
	if len(qc.Tokens) == 0 && qc.Year == 0 {
		return nil
	}
	studies, err := c.search(ctx, types.StudyQuery{
		Contains: qc.Tokens,
		Year:     qc.Year,
		Limit:    c.limits.SearchLimit,
	})
	if err != nil {
		return errorResult(err)
	}
	if len(studies) == 0 {
		return nil
	}
	return &Result{Reply: FormatStudies(qc.Intent, studies), Sources: studies}
}

func (c *Cascade) offTopic(_ context.Context, qc *QueryContext) *Result {
	if c.match.offTopic.MatchString(qc.Normalized) {
		return &Result{Reply: OffTopicReply}
	}
	return nil
}

func (c *Cascade) recent(ctx context.Context, _ *QueryContext) *Result {
	recent := c.recentStudies(ctx)
	return &Result{Reply: withListing(NoMatchReply, "Here are recent studies:", recent), Sources: recent}
}

// recentStudies lists the newest records. A failed lookup is logged and
// treated as an empty catalog since the listing only decorates a reply.
func (c *Cascade) recentStudies(ctx context.Context) []types.Study {
	studies, err := c.search(ctx, types.StudyQuery{Limit: c.limits.RecentLimit})
	if err != nil {
		c.log.Warn().Err(err).Msg("listing recent studies")
		return nil
	}
	return studies
}

func (c *Cascade) search(ctx context.Context, q types.StudyQuery) ([]types.Study, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.store.Search(ctx, q)
}

func errorResult(err error) *Result {
	return &Result{Reply: fmt.Sprintf("%s%v", errorReplyPrefix, err), Err: err}
}
