package handlers

import (
	"net/http"

	"github.com/reubenai/dealsense/internal/application/analysis"
	"github.com/reubenai/dealsense/internal/application/export"
	"github.com/reubenai/dealsense/internal/domain/memo"
)

// AnalysisHandler serves scoring, memo and IC-packet export endpoints.
type AnalysisHandler struct {
	analyzer *analysis.Service
	memos    *memo.Service
	exporter *export.Service
}

func NewAnalysisHandler(analyzer *analysis.Service, memos *memo.Service, exporter *export.Service) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer, memos: memos, exporter: exporter}
}

// Latest handles GET /api/v1/deals/{dealID}/analysis.
func (h *AnalysisHandler) Latest(w http.ResponseWriter, r *http.Request) {
	dealID, err := pathID(r, "dealID")
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.analyzer.Latest(r.Context(), dealID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, rec)
}

// Rescore handles POST /api/v1/deals/{dealID}/analysis, recomputing
// the full score from baseline evidence and stored enrichment.
func (h *AnalysisHandler) Rescore(w http.ResponseWriter, r *http.Request) {
	dealID, err := pathID(r, "dealID")
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.analyzer.Rescore(r.Context(), dealID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, rec)
}

// GenerateMemo handles POST /api/v1/deals/{dealID}/memo. A first call
// creates the memo; later calls refresh its sections and snapshot the
// previous content into the version history.
func (h *AnalysisHandler) GenerateMemo(w http.ResponseWriter, r *http.Request) {
	dealID, err := pathID(r, "dealID")
	if err != nil {
		writeError(w, err)
		return
	}

	draft, err := h.analyzer.BuildMemo(r.Context(), dealID)
	if err != nil {
		writeError(w, err)
		return
	}

	existing, err := h.memos.GetByDeal(r.Context(), dealID)
	switch {
	case err == nil:
		draft.ID = existing.ID
		draft.CreatedAt = existing.CreatedAt
		draft.Version = existing.Version
		if err := h.memos.Save(r.Context(), draft); err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, draft)
	case isNotFound(err):
		if err := h.memos.Create(r.Context(), draft); err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusCreated, draft)
	default:
		writeError(w, err)
	}
}

// GetMemo handles GET /api/v1/deals/{dealID}/memo, returning the memo
// together with its version history.
func (h *AnalysisHandler) GetMemo(w http.ResponseWriter, r *http.Request) {
	dealID, err := pathID(r, "dealID")
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := h.memos.GetByDeal(r.Context(), dealID)
	if err != nil {
		writeError(w, err)
		return
	}
	versions, err := h.memos.History(r.Context(), m.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if versions == nil {
		versions = []*memo.Version{}
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"memo":     m,
		"versions": versions,
	})
}

// Export handles POST /api/v1/deals/{dealID}/export, assembling the
// IC packet and storing it in object storage.
func (h *AnalysisHandler) Export(w http.ResponseWriter, r *http.Request) {
	dealID, err := pathID(r, "dealID")
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.exporter.Export(r.Context(), dealID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, rec)
}
