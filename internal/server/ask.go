package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ziadkadry99/docqa/internal/llm"
	"github.com/ziadkadry99/docqa/internal/qa"
)

type askRequest struct {
	Question string `json:"question"`
	Model    string `json:"model"`
}

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ans, err := s.answerer.Answer(r.Context(), req.Question, req.Model)
	if err != nil {
		writeError(w, askStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func askStatus(err error) int {
	switch {
	case errors.Is(err, qa.ErrEmptyQuestion), errors.Is(err, llm.ErrUnknownModel):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrProviderUnavailable):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	excerpts, err := s.answerer.Retriever().Retrieve(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if excerpts == nil {
		excerpts = []qa.Excerpt{}
	}
	writeJSON(w, http.StatusOK, excerpts)
}
