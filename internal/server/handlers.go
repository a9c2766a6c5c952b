// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/mission-copilot/internal/catalog"
	"github.com/pdiddy/mission-copilot/internal/copilot"
	"github.com/pdiddy/mission-copilot/internal/observability"
	"github.com/pdiddy/mission-copilot/pkg/types"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxBodyBytes     = 64 << 10
)

// ConversationDTO is a conversation and its log.
type ConversationDTO struct {
	ID       string          `json:"id"`
	Messages []types.Message `json:"messages"`
}

// SubmitRequestDTO is the body of a message submission.
type SubmitRequestDTO struct {
	Content string `json:"content"`
}

// SubmitResponseDTO is the reply to one submission.
type SubmitResponseDTO struct {
	Reply   string              `json:"reply"`
	Intent  string              `json:"intent"`
	Stage   string              `json:"stage"`
	Sources []types.Study       `json:"sources,omitempty"`
	Papers  []types.RankedPaper `json:"papers,omitempty"`
}

// HealthDTO is the body of GET /health.
type HealthDTO struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	Studies       int    `json:"studies"`
	AnswerService string `json:"answer_service"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthDTO{Status: "ok", Service: observability.ServiceName, AnswerService: "unconfigured"}
	status := http.StatusOK

	n, err := s.store.Count(r.Context())
	if err != nil {
		s.log.Warn().Err(err).Msg("health: counting studies")
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	resp.Studies = n

	if s.health != nil {
		resp.AnswerService = "ok"
		if err := s.health.Health(r.Context()); err != nil {
			resp.AnswerService = "unavailable"
		}
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	id, conv := s.sessions.create(s.answerer)
	s.log.Debug().Str("conversation", id).Msg("conversation created")
	writeJSON(w, http.StatusCreated, ConversationDTO{ID: id, Messages: conv.Messages()})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conv, ok := s.sessions.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found", "")
		return
	}
	writeJSON(w, http.StatusOK, ConversationDTO{ID: id, Messages: conv.Messages()})
}

func (s *Server) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conv, ok := s.sessions.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found", "")
		return
	}

	var req SubmitRequestDTO
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	res, err := conv.Submit(r.Context(), req.Content)
	switch {
	case errors.Is(err, copilot.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "content is required", "")
		return
	case errors.Is(err, copilot.ErrSubmissionPending):
		writeError(w, http.StatusConflict, "a message is already being answered", "")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "submission failed", err.Error())
		return
	}

	if res.Err != nil {
		s.log.Error().Err(res.Err).Str("conversation", id).Msg("catalog query failed")
	}
	writeJSON(w, http.StatusCreated, SubmitResponseDTO{
		Reply:   res.Reply,
		Intent:  string(res.Intent),
		Stage:   string(res.Stage),
		Sources: res.Sources,
		Papers:  res.Papers,
	})
}

func (s *Server) handleListStudies(w http.ResponseWriter, r *http.Request) {
	q, err := parseStudyQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	studies, err := s.store.Search(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed", err.Error())
		return
	}
	if studies == nil {
		studies = []types.Study{}
	}
	writeJSON(w, http.StatusOK, studies)
}

func (s *Server) handleGetStudy(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid study id", "")
		return
	}
	st, err := s.store.Get(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "study not found", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// parseStudyQuery maps dashboard filters onto a catalog query.
func parseStudyQuery(r *http.Request) (types.StudyQuery, error) {
	v := r.URL.Query()
	q := types.StudyQuery{
		Type:    types.StudyType(strings.ToLower(v.Get("type"))),
		Outcome: types.Outcome(strings.ToLower(v.Get("outcome"))),
		Mission: v.Get("mission"),
		Limit:   defaultListLimit,
	}

	var err error
	if q.Year, err = intParam(v.Get("year"), "year"); err != nil {
		return q, err
	}
	if q.MaxYear, err = intParam(v.Get("max_year"), "max_year"); err != nil {
		return q, err
	}
	if raw := v.Get("limit"); raw != "" {
		if q.Limit, err = intParam(raw, "limit"); err != nil {
			return q, err
		}
		if q.Limit <= 0 || q.Limit > maxListLimit {
			return q, errors.New("limit must be between 1 and " + strconv.Itoa(maxListLimit))
		}
	}
	if text := strings.TrimSpace(v.Get("q")); text != "" {
		q.Contains = []string{text}
	}

	switch q.Type {
	case "", types.StudyAnimal, types.StudyPlant, types.StudyHuman, types.StudyMicrobial:
	default:
		return q, errors.New("unknown type " + strconv.Quote(string(q.Type)))
	}
	switch q.Outcome {
	case "", types.OutcomePositive, types.OutcomeNegative, types.OutcomeInconclusive, types.OutcomeContradictory:
	default:
		return q, errors.New("unknown outcome " + strconv.Quote(string(q.Outcome)))
	}
	return q, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
