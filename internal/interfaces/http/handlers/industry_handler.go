package handlers

import (
	"net/http"

	"github.com/reubenai/dealsense/internal/domain/deal"
	"github.com/reubenai/dealsense/internal/domain/fund"
	"github.com/reubenai/dealsense/internal/domain/industry"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
)

// IndustryHandler serves taxonomy classification and fund-alignment
// endpoints.
type IndustryHandler struct {
	classifier *industry.Classifier
	deals      *deal.Service
	funds      *fund.Service
}

func NewIndustryHandler(classifier *industry.Classifier, deals *deal.Service, funds *fund.Service) *IndustryHandler {
	if classifier == nil {
		classifier = industry.NewClassifier(nil)
	}
	return &IndustryHandler{classifier: classifier, deals: deals, funds: funds}
}

// Classify handles POST /api/v1/industry/classify.
func (h *IndustryHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Term string `json:"term"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Term == "" {
		writeError(w, appErrors.InvalidParam("term is required"))
		return
	}

	match := h.classifier.FindBestMatch(req.Term)
	writeData(w, http.StatusOK, map[string]interface{}{
		"term":    req.Term,
		"match":   match,
		"matched": match != nil,
	})
}

// alignmentRequest accepts either explicit terms or deal/fund IDs to
// resolve them from.
type alignmentRequest struct {
	DealID         string   `json:"deal_id"`
	FundID         string   `json:"fund_id"`
	DealIndustry   string   `json:"deal_industry"`
	FundIndustries []string `json:"fund_industries"`
	MinConfidence  int      `json:"min_confidence"`
}

// Alignment handles POST /api/v1/industry/alignment: is this deal's
// sector inside the fund's focus list?
func (h *IndustryHandler) Alignment(w http.ResponseWriter, r *http.Request) {
	var req alignmentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	dealIndustry := req.DealIndustry
	if dealIndustry == "" && req.DealID != "" {
		d, err := h.deals.Get(r.Context(), commonID(req.DealID))
		if err != nil {
			writeError(w, err)
			return
		}
		dealIndustry = d.Industry
	}

	fundIndustries := req.FundIndustries
	minConfidence := req.MinConfidence
	if len(fundIndustries) == 0 && req.FundID != "" {
		f, err := h.funds.Get(r.Context(), commonID(req.FundID))
		if err != nil {
			writeError(w, err)
			return
		}
		fundIndustries = f.FocusIndustries

		if minConfidence <= 0 {
			if strategy, err := h.funds.GetStrategy(r.Context(), f.ID); err == nil {
				minConfidence = strategy.MinAlignmentConfidence
			}
		}
	}

	if dealIndustry == "" {
		writeError(w, appErrors.InvalidParam("deal_industry or deal_id is required"))
		return
	}
	if minConfidence <= 0 {
		minConfidence = fund.DefaultMinAlignmentConfidence
	}

	alignment := h.classifier.AreIndustriesAligned(dealIndustry, fundIndustries, minConfidence)
	writeData(w, http.StatusOK, alignment)
}
