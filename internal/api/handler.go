package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/locality-intel/internal/catalog"
	"github.com/sells-group/locality-intel/internal/report"
)

// Handler holds the dependencies of the HTTP routes.
type Handler struct {
	catalog   *catalog.Catalog
	assembler *report.Assembler
	sessions  *Sessions
}

// NewHandler creates a Handler. sessions may be nil, in which case every
// report request is independent.
func NewHandler(cat *catalog.Catalog, a *report.Assembler, sessions *Sessions) *Handler {
	return &Handler{catalog: cat, assembler: a, sessions: sessions}
}

type reportRequest struct {
	City     string `json:"city"`
	Sector   string `json:"sector"`
	SectorID string `json:"sector_id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listSectors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Sectors())
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Suggest(r.URL.Query().Get("q")))
}

func (h *Handler) listUseCases(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.UseCases())
}

func (h *Handler) weights(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, report.Weights())
}

func (h *Handler) buildReport(w http.ResponseWriter, r *http.Request) {
	var body reportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	req := report.Request{City: body.City, Sector: body.Sector}
	if body.SectorID != "" {
		s, ok := h.catalog.ByID(body.SectorID)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown sector", Field: "sector_id"})
			return
		}
		req.Explicit = &s
	}

	var (
		rep *report.Report
		err error
	)
	if id := r.Header.Get(SessionHeader); id != "" && h.sessions != nil {
		rep, err = h.sessions.Get(id).Submit(r.Context(), req)
	} else {
		rep, err = h.assembler.Build(r.Context(), req)
	}

	var ve *report.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rep)
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, report.ErrSuperseded):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "superseded by a newer request"})
	default:
		zap.L().Warn("api: report failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "report canceled"})
	}
}

type sessionResponse struct {
	State  report.State   `json:"state"`
	Busy   bool           `json:"busy"`
	Report *report.Report `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func (h *Handler) sessionState(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "sessions disabled"})
		return
	}
	s, ok := h.sessions.Lookup(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown session"})
		return
	}
	writeSnapshot(w, s.Snapshot())
}

// inputChanged tells the session the form was edited, clearing a rejection.
func (h *Handler) inputChanged(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "sessions disabled"})
		return
	}
	s, ok := h.sessions.Lookup(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown session"})
		return
	}
	s.InputChanged()
	writeSnapshot(w, s.Snapshot())
}

func writeSnapshot(w http.ResponseWriter, snap report.Snapshot) {
	resp := sessionResponse{
		State:  snap.State,
		Busy:   snap.State == report.StateValidating || snap.State == report.StateResolving || snap.State == report.StateClassifying,
		Report: snap.Report,
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}
