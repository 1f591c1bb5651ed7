package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/textspan/speechmark/core/corpus"
	"github.com/textspan/speechmark/core/dataset"
	"github.com/textspan/speechmark/core/errors"
	"github.com/textspan/speechmark/core/quote"
	"github.com/textspan/speechmark/internal/logging"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"engine_config": s.cfg.EngineConfig,
		"sqlite_driver": dataset.DriverType(),
		"store_open":    s.cfg.Store != nil,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w)
	if !ok {
		return
	}
	runs, err := store.ListRuns(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w)
	if !ok {
		return
	}
	run, err := store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w)
	if !ok {
		return
	}
	runID := r.PathValue("id")
	if _, err := store.GetRun(r.Context(), runID); err != nil {
		writeError(w, err)
		return
	}
	records, err := store.ListDocuments(r.Context(), runID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": records})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w)
	if !ok {
		return
	}
	runID, docID := r.PathValue("id"), r.PathValue("doc")

	labeled, err := store.GetDocument(r.Context(), runID, docID)
	if err != nil {
		writeError(w, err)
		return
	}
	spans, err := store.GetSpans(r.Context(), runID, docID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":     docID,
		"paragraphs": labeled,
		"spans":      spans,
	})
}

// labelRequest is the body of POST /api/v1/label: raw paragraph texts to
// label with the server's engine configuration.
type labelRequest struct {
	DocID      string   `json:"doc_id,omitempty"`
	Paragraphs []string `json:"paragraphs"`
}

func (s *Server) handleLabel(w http.ResponseWriter, r *http.Request) {
	var req labelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidation("body", "malformed JSON request"))
		return
	}
	if len(req.Paragraphs) == 0 {
		writeError(w, errors.NewValidation("paragraphs", "must not be empty"))
		return
	}
	if req.DocID == "" {
		req.DocID = "adhoc"
	}

	paras := make([]corpus.Paragraph, len(req.Paragraphs))
	for i, text := range req.Paragraphs {
		paras[i] = corpus.Paragraph{
			DocID:  req.DocID,
			ParaID: fmt.Sprintf("%s_para%d", req.DocID, i),
			Text:   text,
			Tokens: corpus.Tokenize(text),
		}
	}

	labeled, err := quote.NewLabeler(s.cfg.EngineConfig).LabelParagraphs(paras)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":     req.DocID,
		"paragraphs": labeled,
	})
}

// store returns the run store, or writes a 503 if none is configured.
func (s *Server) store(w http.ResponseWriter) (*dataset.Store, bool) {
	if s.cfg.Store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no run store configured"})
		return nil, false
	}
	return s.cfg.Store, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrUnsupported):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
