package handlers

import (
	"net/http"

	"github.com/reubenai/dealsense/internal/domain/criteria"
	"github.com/reubenai/dealsense/internal/domain/fund"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// FundHandler serves fund and investment-strategy endpoints.
type FundHandler struct {
	funds *fund.Service
}

func NewFundHandler(funds *fund.Service) *FundHandler {
	return &FundHandler{funds: funds}
}

type createFundRequest struct {
	Name             string          `json:"name"`
	Type             common.FundType `json:"type"`
	FocusIndustries  []string        `json:"focus_industries"`
	FocusStages      []string        `json:"focus_stages"`
	FocusGeographies []string        `json:"focus_geographies"`
}

// Create handles POST /api/v1/funds.
func (h *FundHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFundRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	f := &fund.Fund{
		Name:             req.Name,
		Type:             req.Type,
		FocusIndustries:  req.FocusIndustries,
		FocusStages:      req.FocusStages,
		FocusGeographies: req.FocusGeographies,
	}
	if err := h.funds.Create(r.Context(), f); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, f)
}

// Get handles GET /api/v1/funds/{fundID}.
func (h *FundHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "fundID")
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := h.funds.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, f)
}

// List handles GET /api/v1/funds.
func (h *FundHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parsePagination(r)
	funds, total, err := h.funds.List(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, listEnvelope{
		Items:    funds,
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    total,
	})
}

// GetStrategy handles GET /api/v1/funds/{fundID}/strategy. A fund
// without a saved strategy gets one initialised from the default
// template for its type.
func (h *FundHandler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	fundID, err := pathID(r, "fundID")
	if err != nil {
		writeError(w, err)
		return
	}
	strategy, err := h.funds.GetStrategy(r.Context(), fundID)
	if isNotFound(err) {
		strategy, err = h.funds.InitStrategy(r.Context(), fundID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, strategy)
}

type saveStrategyRequest struct {
	Template               criteria.CriteriaTemplate `json:"template"`
	MinAlignmentConfidence int                       `json:"min_alignment_confidence"`
}

// SaveStrategy handles PUT /api/v1/funds/{fundID}/strategy. The
// template is validated before persisting; an invalid one returns the
// validation result without saving.
func (h *FundHandler) SaveStrategy(w http.ResponseWriter, r *http.Request) {
	fundID, err := pathID(r, "fundID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req saveStrategyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	strategy := &fund.Strategy{
		FundID:                 fundID,
		Template:               req.Template,
		MinAlignmentConfidence: req.MinAlignmentConfidence,
	}
	result, err := h.funds.SaveStrategy(r.Context(), strategy)
	if err != nil {
		writeError(w, err)
		return
	}
	if !result.IsValid {
		// Nothing was saved; the findings tell the caller what to fix.
		writeJSON(w, http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Data:    map[string]interface{}{"validation": result},
		})
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"strategy":   strategy,
		"validation": result,
	})
}

// ValidateStrategy handles POST /api/v1/strategy/validate: checks a
// template without saving anything.
func (h *FundHandler) ValidateStrategy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Template criteria.CriteriaTemplate `json:"template"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result := h.funds.ValidateTemplate(&req.Template)
	writeData(w, http.StatusOK, result)
}
