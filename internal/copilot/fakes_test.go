// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package copilot

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mission-copilot/internal/httputil"
	"github.com/pdiddy/mission-copilot/pkg/types"
)

// memStore is an in-memory StudySearcher with the catalog's matching rules.
type memStore struct {
	mu      sync.Mutex
	studies []types.Study
	err     error
	// failOn, when set, makes only the matching queries fail.
	failOn  func(types.StudyQuery) bool
	queries []types.StudyQuery
}

func (s *memStore) Search(_ context.Context, q types.StudyQuery) ([]types.Study, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil && (s.failOn == nil || s.failOn(q)) {
		return nil, s.err
	}

	var out []types.Study
	for _, st := range s.studies {
		if q.Year != 0 && st.Year != q.Year {
			continue
		}
		if len(q.Contains) > 0 && !containsAny(st, q.Contains) {
			continue
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *memStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

func containsAny(st types.Study, terms []string) bool {
	fields := strings.ToLower(strings.Join([]string{st.Title, st.Summary, st.Abstract, st.Keyword}, "\x00"))
	for _, t := range terms {
		if t != "" && strings.Contains(fields, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// stubService is a scripted AnswerService.
type stubService struct {
	answer    *types.AnswerResponse
	answerErr error
	query     *types.QueryResponse
	queryErr  error

	answerCalls int
	queryCalls  int
	lastIntent  string
	lastQuery   string
}

func (s *stubService) Answer(_ context.Context, q string, _ int, intent string) (*types.AnswerResponse, error) {
	s.answerCalls++
	s.lastQuery = q
	s.lastIntent = intent
	if s.answerErr != nil {
		return nil, s.answerErr
	}
	if s.answer == nil {
		return &types.AnswerResponse{}, nil
	}
	return s.answer, nil
}

func (s *stubService) Query(_ context.Context, q string, _ int) (*types.QueryResponse, error) {
	s.queryCalls++
	s.lastQuery = q
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if s.query == nil {
		return &types.QueryResponse{}, nil
	}
	return s.query, nil
}

var (
	errOffline    = errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")
	errStatus503  = &httputil.StatusError{URL: "http://127.0.0.1:8000/answer", StatusCode: 503}
	errStoreBroke = errors.New("relation \"studies\" does not exist")
)

func catalogFixture() []types.Study {
	return []types.Study{
		{ID: 1, Title: "Radiation Shielding Study", Year: 2023, Mission: "ISS", Keyword: "Radiation",
			Summary: "Shielding reduced dose.", Type: types.StudyAnimal, Outcome: types.OutcomePositive},
		{ID: 2, Title: "Arabidopsis Root Growth", Year: 2019, Mission: "ISS", Keyword: "Plant Growth",
			Summary: "Roots grew sideways.", Abstract: "Plant growth in microgravity.", Type: types.StudyPlant, Outcome: types.OutcomePositive},
		{ID: 3, Title: "Bone Loss in Rodents", Year: 2021, Mission: "Shuttle", Keyword: "Bone",
			Summary: "Bone density fell.", Type: types.StudyAnimal, Outcome: types.OutcomeNegative},
	}
}

func newTestCascade(t *testing.T, store StudySearcher, svc AnswerService) *Cascade {
	t.Helper()
	c, err := New(store, svc, Options{Vocabulary: DefaultVocabulary(), Logger: zerolog.Nop()})
	require.NoError(t, err)
	return c
}
