package handlers

import (
	"net/http"

	"github.com/reubenai/dealsense/internal/application/enrichment"
	"github.com/reubenai/dealsense/internal/domain/deal"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// EnrichmentHandler serves the enrichment run and result endpoints.
type EnrichmentHandler struct {
	enricher *enrichment.Service
	deals    *deal.Service
	records  deal.EnrichmentRepository
}

func NewEnrichmentHandler(enricher *enrichment.Service, deals *deal.Service, records deal.EnrichmentRepository) *EnrichmentHandler {
	return &EnrichmentHandler{enricher: enricher, deals: deals, records: records}
}

// enrichRequest is the POST /deals/{dealID}/enrich body. Both fields
// are optional: an empty pack list means every applicable pack.
type enrichRequest struct {
	Packs        []string `json:"packs"`
	ForceRefresh bool     `json:"force_refresh"`
}

// Enrich handles POST /api/v1/deals/{dealID}/enrich. Partial failure
// is still a 200: degraded packs are reported inside the result, only
// a missing deal or a global kill-switch is fatal.
func (h *EnrichmentHandler) Enrich(w http.ResponseWriter, r *http.Request) {
	dealID, err := pathID(r, "dealID")
	if err != nil {
		writeError(w, err)
		return
	}

	var req enrichRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	d, err := h.deals.Get(r.Context(), dealID)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.enricher.Run(r.Context(), enrichment.RunRequest{
		DealID:       d.ID,
		FundID:       d.FundID,
		Packs:        req.Packs,
		ForceRefresh: req.ForceRefresh,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

// Results handles GET /api/v1/deals/{dealID}/enrichment, listing the
// stored pack records for the deal.
func (h *EnrichmentHandler) Results(w http.ResponseWriter, r *http.Request) {
	dealID, err := pathID(r, "dealID")
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.deals.Get(r.Context(), dealID); err != nil {
		writeError(w, err)
		return
	}

	records, err := h.records.GetByDeal(r.Context(), dealID)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []*deal.EnrichmentRecord{}
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"deal_id": common.ID(dealID),
		"records": records,
	})
}
