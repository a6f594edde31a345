package clip

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/capture"
)

// RegisterHTTP mounts the clipper API.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/page", s.handleOpenPage)
		r.Post("/clip/text", s.handleClipText)
		r.Post("/clip/region", s.handleClipRegion)
		r.Get("/documents", s.handleDocuments)
		r.Get("/documents/{id}/outline", s.handleOutline)
	})
}

type openPageRequest struct {
	URL string `json:"url"`
}

// handleOpenPage navigates the capture browser to the page the user wants to
// clip from.
func (s *Service) handleOpenPage(w http.ResponseWriter, r *http.Request) {
	var req openPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		http.Error(w, "url required", http.StatusBadRequest)
		return
	}
	if err := s.Pager.Open(r.Context(), req.URL); err != nil {
		s.log.Error("clip: open page", "url", req.URL, "error", err)
		http.Error(w, "could not open page", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "open"})
}

type clipTextRequest struct {
	DocumentID string `json:"document_id"`
	Index      int64  `json:"index"`
}

func (s *Service) handleClipText(w http.ResponseWriter, r *http.Request) {
	var req clipTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.ClipSelection(r.Context(), Anchor{DocumentID: req.DocumentID, Index: req.Index})
	writeJSON(w, statusFor(err), res)
}

type clipRegionRequest struct {
	DocumentID string         `json:"document_id"`
	Index      int64          `json:"index"`
	Region     capture.Region `json:"region"`
}

func (s *Service) handleClipRegion(w http.ResponseWriter, r *http.Request) {
	var req clipRegionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.ClipRegion(r.Context(), Anchor{DocumentID: req.DocumentID, Index: req.Index}, req.Region)
	writeJSON(w, statusFor(err), res)
}

func (s *Service) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.Orchestrator.Documents(r.Context())
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error(), "failure": string(Classify(err))})
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Service) handleOutline(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")
	entries, err := s.Orchestrator.Outline(r.Context(), docID)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error(), "failure": string(Classify(err))})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// statusFor maps the failure taxonomy onto HTTP statuses. Partial insertion
// reports 207: the content is in the document, some formatting is not.
func statusFor(err error) int {
	switch Classify(err) {
	case FailNone:
		return http.StatusOK
	case FailNoDocument:
		return http.StatusBadRequest
	case FailSignInRequired, FailSessionExpired:
		return http.StatusUnauthorized
	case FailCapture:
		return http.StatusUnprocessableEntity
	case FailPartialInsertion:
		return http.StatusMultiStatus
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
