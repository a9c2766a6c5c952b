// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mission-copilot/internal/catalog"
	"github.com/pdiddy/mission-copilot/internal/copilot"
	"github.com/pdiddy/mission-copilot/pkg/types"
)

func testStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.NewStore(types.CatalogConfig{
		Driver: types.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "studies.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.Import(context.Background(), []types.Study{
		{ID: 1, Title: "Radiation Shielding Study", Year: 2023, Type: types.StudyHuman, Mission: "ISS",
			Keyword: "radiation", Outcome: types.OutcomePositive, Summary: "Panels cut dose."},
		{ID: 2, Title: "Arabidopsis Root Growth", Year: 2019, Type: types.StudyPlant, Mission: "ISS",
			Keyword: "plant growth", Outcome: types.OutcomeInconclusive, Summary: "Roots skew."},
		{ID: 3, Title: "Bone Loss in Rodents", Year: 2021, Type: types.StudyAnimal, Mission: "Shuttle",
			Keyword: "bone", Outcome: types.OutcomeNegative, Summary: "Femur density drops."},
	}, io.Discard)
	require.NoError(t, err)
	return store
}

func testServer(t *testing.T, answerer copilot.Answerer, health HealthChecker) (*httptest.Server, *catalog.Store) {
	t.Helper()
	store := testStore(t)
	if answerer == nil {
		c, err := copilot.New(store, nil, copilot.Options{Vocabulary: copilot.DefaultVocabulary(), Logger: zerolog.Nop()})
		require.NoError(t, err)
		answerer = c
	}
	srv := New(store, answerer, health, types.DefaultCopilotConfig().Server, zerolog.Nop())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, store
}

func doJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createConversation(t *testing.T, base string) string {
	t.Helper()
	var conv ConversationDTO
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, base+"/api/v1/conversations", "", &conv))
	require.NotEmpty(t, conv.ID)
	return conv.ID
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Health(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	ts, _ := testServer(t, nil, nil)

	var h HealthDTO
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/health", "", &h))
	assert.Equal(t, HealthDTO{Status: "ok", Service: "mission-copilot", Studies: 3, AnswerService: "unconfigured"}, h)
}

func TestHealthReportsAnswerService(t *testing.T) {
	ts, _ := testServer(t, nil, pingFunc(func(context.Context) error { return errors.New("down") }))

	var h HealthDTO
	doJSON(t, http.MethodGet, ts.URL+"/health", "", &h)
	assert.Equal(t, "unavailable", h.AnswerService)
}

func TestHealthDegradedWhenCatalogClosed(t *testing.T) {
	ts, store := testServer(t, nil, nil)
	require.NoError(t, store.Close())

	var h HealthDTO
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, http.MethodGet, ts.URL+"/health", "", &h))
	assert.Equal(t, "degraded", h.Status)
}

func TestConversationLifecycle(t *testing.T) {
	ts, _ := testServer(t, nil, nil)
	id := createConversation(t, ts.URL)
	msgURL := ts.URL + "/api/v1/conversations/" + id + "/messages"

	var reply SubmitResponseDTO
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, msgURL, `{"content":"radiation ISS 2023"}`, &reply))
	assert.Equal(t, "Here are 1 relevant studies:\n• Radiation Shielding Study (2023, ISS) – Panels cut dose.", reply.Reply)
	assert.Equal(t, "paper_lookup", reply.Intent)
	assert.Equal(t, "tokenized", reply.Stage)
	require.Len(t, reply.Sources, 1)
	assert.Equal(t, int64(1), reply.Sources[0].ID)

	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, msgURL, `{"content":"hello"}`, &reply))
	assert.Equal(t, copilot.GreetingReply, reply.Reply)

	var conv ConversationDTO
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/v1/conversations/"+id, "", &conv))
	require.Len(t, conv.Messages, 5)
	assert.Equal(t, types.Message{Role: types.RoleAssistant, Content: copilot.WelcomeMessage}, conv.Messages[0])
	assert.Equal(t, types.Message{Role: types.RoleUser, Content: "radiation ISS 2023"}, conv.Messages[1])
	assert.Equal(t, types.RoleAssistant, conv.Messages[4].Role)
}

func TestSubmitErrors(t *testing.T) {
	ts, _ := testServer(t, nil, nil)
	id := createConversation(t, ts.URL)
	msgURL := ts.URL + "/api/v1/conversations/" + id + "/messages"

	tests := []struct {
		name string
		url  string
		body string
		want int
	}{
		{"blank content", msgURL, `{"content":"   "}`, http.StatusBadRequest},
		{"malformed body", msgURL, `{"content":`, http.StatusBadRequest},
		{"unknown conversation", ts.URL + "/api/v1/conversations/nope/messages", `{"content":"bone"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]string
			assert.Equal(t, tt.want, doJSON(t, http.MethodPost, tt.url, tt.body, &body))
			assert.NotEmpty(t, body["error"])
		})
	}

	var conv ConversationDTO
	doJSON(t, http.MethodGet, ts.URL+"/api/v1/conversations/"+id, "", &conv)
	assert.Len(t, conv.Messages, 1, "rejected submissions append nothing")
}

func TestGetUnknownConversation(t *testing.T) {
	ts, _ := testServer(t, nil, nil)
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, ts.URL+"/api/v1/conversations/missing", "", nil))
}

type blockingAnswerer struct {
	started chan struct{}
	release chan struct{}
}

func (a *blockingAnswerer) Answer(context.Context, string) copilot.Result {
	close(a.started)
	<-a.release
	return copilot.Result{Reply: "done"}
}

func TestSubmitWhilePendingConflicts(t *testing.T) {
	a := &blockingAnswerer{started: make(chan struct{}), release: make(chan struct{})}
	ts, _ := testServer(t, a, nil)
	id := createConversation(t, ts.URL)
	msgURL := ts.URL + "/api/v1/conversations/" + id + "/messages"

	done := make(chan int, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodPost, msgURL, strings.NewReader(`{"content":"first"}`))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()
	<-a.started

	assert.Equal(t, http.StatusConflict, doJSON(t, http.MethodPost, msgURL, `{"content":"second"}`, nil))
	close(a.release)
	assert.Equal(t, http.StatusCreated, <-done)
}

func TestListStudies(t *testing.T) {
	ts, _ := testServer(t, nil, nil)

	tests := []struct {
		query string
		want  []int64
	}{
		{"", []int64{1, 3, 2}},
		{"?mission=ISS", []int64{1, 2}},
		{"?year=2021", []int64{3}},
		{"?type=PLANT", []int64{2}},
		{"?outcome=negative", []int64{3}},
		{"?q=root", []int64{2}},
		{"?max_year=2021", []int64{3, 2}},
		{"?limit=1", []int64{1}},
		{"?year=1999", []int64{}},
		{"?q=%25", []int64{}},
		{"?q=_", []int64{}},
	}
	for _, tt := range tests {
		var studies []types.Study
		require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/v1/studies"+tt.query, "", &studies), tt.query)
		ids := []int64{}
		for _, s := range studies {
			ids = append(ids, s.ID)
		}
		assert.Equal(t, tt.want, ids, "query %q", tt.query)
	}
}

func TestListStudiesRejectsBadFilters(t *testing.T) {
	ts, _ := testServer(t, nil, nil)
	for _, q := range []string{"?year=abc", "?limit=0", "?limit=10000", "?type=fungal", "?outcome=maybe"} {
		assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, ts.URL+"/api/v1/studies"+q, "", nil), q)
	}
}

func TestGetStudy(t *testing.T) {
	ts, _ := testServer(t, nil, nil)

	var st types.Study
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/v1/studies/3", "", &st))
	assert.Equal(t, "Bone Loss in Rodents", st.Title)

	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, ts.URL+"/api/v1/studies/99", "", nil))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, ts.URL+"/api/v1/studies/abc", "", nil))
}

func TestRequestIDHeaderIsAccepted(t *testing.T) {
	ts, _ := testServer(t, nil, nil)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
