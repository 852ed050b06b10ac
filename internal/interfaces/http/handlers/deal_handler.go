package handlers

import (
	"net/http"

	"github.com/reubenai/dealsense/internal/domain/deal"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// DealHandler serves the deal CRUD and pipeline endpoints.
type DealHandler struct {
	deals *deal.Service
}

func NewDealHandler(deals *deal.Service) *DealHandler {
	return &DealHandler{deals: deals}
}

// createDealRequest is the POST /deals body.
type createDealRequest struct {
	FundID       common.ID       `json:"fund_id"`
	CompanyName  string          `json:"company_name"`
	Industry     string          `json:"industry"`
	Stage        deal.Stage      `json:"stage"`
	Description  string          `json:"description"`
	Website      string          `json:"website"`
	Geography    string          `json:"geography"`
	FundingStage string          `json:"funding_stage"`
	Financials   deal.Financials `json:"financials"`
}

// Create handles POST /api/v1/deals.
func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDealRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	stage := req.Stage
	if stage == "" {
		stage = deal.StageSourced
	}
	d := &deal.Deal{
		FundID:       req.FundID,
		CompanyName:  req.CompanyName,
		Industry:     req.Industry,
		Stage:        stage,
		Description:  req.Description,
		Website:      req.Website,
		Geography:    req.Geography,
		FundingStage: req.FundingStage,
		Financials:   req.Financials,
	}
	if err := h.deals.Create(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, d)
}

// Get handles GET /api/v1/deals/{dealID}.
func (h *DealHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "dealID")
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := h.deals.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, d)
}

// List handles GET /api/v1/deals with fund_id, stage, industry filters.
func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := deal.ListFilter{
		FundID:     common.ID(r.URL.Query().Get("fund_id")),
		Stage:      deal.Stage(r.URL.Query().Get("stage")),
		Industry:   r.URL.Query().Get("industry"),
		Pagination: parsePagination(r),
	}

	deals, total, err := h.deals.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, listEnvelope{
		Items:    deals,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    total,
	})
}

// Update handles PUT /api/v1/deals/{dealID}.
func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "dealID")
	if err != nil {
		writeError(w, err)
		return
	}

	existing, err := h.deals.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createDealRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	existing.CompanyName = req.CompanyName
	existing.Industry = req.Industry
	existing.Description = req.Description
	existing.Website = req.Website
	existing.Geography = req.Geography
	existing.FundingStage = req.FundingStage
	existing.Financials = req.Financials
	if req.Stage != "" {
		existing.Stage = req.Stage
	}

	if err := h.deals.Update(r.Context(), existing); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, existing)
}

// Delete handles DELETE /api/v1/deals/{dealID}.
func (h *DealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "dealID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.deals.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"deal_id": string(id)})
}

// Advance handles POST /api/v1/deals/{dealID}/advance, moving the deal
// through the pipeline state machine.
func (h *DealHandler) Advance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "dealID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Stage deal.Stage `json:"stage"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := h.deals.Advance(r.Context(), id, req.Stage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, d)
}
