// Package handlers implements the HTTP endpoints of the deal
// evaluation API. Every response uses the APIResponse envelope.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// APIResponse is the uniform response envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError carries the machine-readable error code next to the
// human-readable message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeData writes a successful envelope.
func writeData(w http.ResponseWriter, statusCode int, data interface{}) {
	writeJSON(w, statusCode, APIResponse{Success: true, Data: data})
}

// writeError maps an application error onto its HTTP status via the
// error-code table. Unrecognized codes land on 500.
func writeError(w http.ResponseWriter, err error) {
	code := appErrors.GetCode(err)
	status := appErrors.HTTPStatusForCode(code)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Internal detail stays in the logs.
		msg = appErrors.DefaultMessageForCode(code)
	}

	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code.String(), Message: msg},
	})
}

func isNotFound(err error) bool { return appErrors.IsNotFound(err) }

// commonID converts a request-supplied string without validating it;
// downstream lookups validate and reject malformed IDs.
func commonID(s string) common.ID { return common.ID(s) }

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close() //nolint:errcheck
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeBadRequest, "malformed request body")
	}
	return nil
}

// pathID extracts and validates a UUID path parameter.
func pathID(r *http.Request, name string) (common.ID, error) {
	id := common.ID(chi.URLParam(r, name))
	if err := id.Validate(); err != nil {
		return "", appErrors.InvalidParam(name + " must be a valid UUID")
	}
	return id, nil
}

// parsePagination reads page/page_size query parameters, clamped to
// sane bounds.
func parsePagination(r *http.Request) common.Pagination {
	page := common.Pagination{Page: 1, PageSize: 20}
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page.Page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 100 {
			page.PageSize = ps
		}
	}
	return page
}

// listEnvelope is the standard shape for paginated collections.
type listEnvelope struct {
	Items    interface{} `json:"items"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int64       `json:"total"`
}
