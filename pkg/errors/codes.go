package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
)

// Deal module error codes
const (
	ErrCodeDealNotFound      ErrorCode = "DEAL_001"
	ErrCodeDealAlreadyExists ErrorCode = "DEAL_002"
	ErrCodeDealInvalidStage  ErrorCode = "DEAL_003"
	ErrCodeFundNotFound      ErrorCode = "DEAL_004"
	ErrCodeStrategyNotFound  ErrorCode = "DEAL_005"
)

// Criteria / scoring module error codes
const (
	ErrCodeWeightSumInvalid      ErrorCode = "CRIT_001"
	ErrCodeTemplateInvalid       ErrorCode = "CRIT_002"
	ErrCodeFundTypeUnsupported   ErrorCode = "CRIT_003"
	ErrCodeScoreOutOfRange       ErrorCode = "CRIT_004"
	ErrCodeTargetParamsInvalid   ErrorCode = "CRIT_005"
	ErrCodeAnalysisResultMissing ErrorCode = "CRIT_006"
)

// Enrichment module error codes
const (
	ErrCodeEnrichmentFailed     ErrorCode = "ENR_001"
	ErrCodePackUnknown          ErrorCode = "ENR_002"
	ErrCodePackDisabled         ErrorCode = "ENR_003"
	ErrCodeExtractionFailed     ErrorCode = "ENR_004"
	ErrCodeEnrichmentInProgress ErrorCode = "ENR_005"
)

// Memo / export module error codes
const (
	ErrCodeMemoNotFound     ErrorCode = "MEMO_001"
	ErrCodeMemoGenFailed    ErrorCode = "MEMO_002"
	ErrCodeExportFailed     ErrorCode = "MEMO_003"
	ErrCodeExportNotFound   ErrorCode = "MEMO_004"
	ErrCodeVersionConflict  ErrorCode = "MEMO_005"
	ErrCodePacketIncomplete ErrorCode = "MEMO_006"
)

// External research provider error codes
const (
	ErrCodeProviderUnavailable ErrorCode = "SRC_001"
	ErrCodeProviderRateLimited ErrorCode = "SRC_002"
	ErrCodeProviderAuthFailed  ErrorCode = "SRC_003"
	ErrCodeProviderParseError  ErrorCode = "SRC_004"
	ErrCodeProviderTimeout     ErrorCode = "SRC_005"
)

// Sentinels used by Wrap and GetCode.  They are not real error codes and
// never map to an HTTP status.
const (
	CodeUnknown = ErrorCode("UNKNOWN")
	CodeOK      = ErrorCode("OK")
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusInternalServerError,
	ErrCodeFeatureDisabled:    http.StatusForbidden,

	ErrCodeDealNotFound:      http.StatusNotFound,
	ErrCodeDealAlreadyExists: http.StatusConflict,
	ErrCodeDealInvalidStage:  http.StatusBadRequest,
	ErrCodeFundNotFound:      http.StatusNotFound,
	ErrCodeStrategyNotFound:  http.StatusNotFound,

	ErrCodeWeightSumInvalid:      http.StatusUnprocessableEntity,
	ErrCodeTemplateInvalid:       http.StatusUnprocessableEntity,
	ErrCodeFundTypeUnsupported:   http.StatusBadRequest,
	ErrCodeScoreOutOfRange:       http.StatusBadRequest,
	ErrCodeTargetParamsInvalid:   http.StatusUnprocessableEntity,
	ErrCodeAnalysisResultMissing: http.StatusNotFound,

	ErrCodeEnrichmentFailed:     http.StatusInternalServerError,
	ErrCodePackUnknown:          http.StatusBadRequest,
	ErrCodePackDisabled:         http.StatusForbidden,
	ErrCodeExtractionFailed:     http.StatusInternalServerError,
	ErrCodeEnrichmentInProgress: http.StatusConflict,

	ErrCodeMemoNotFound:     http.StatusNotFound,
	ErrCodeMemoGenFailed:    http.StatusInternalServerError,
	ErrCodeExportFailed:     http.StatusInternalServerError,
	ErrCodeExportNotFound:   http.StatusNotFound,
	ErrCodeVersionConflict:  http.StatusConflict,
	ErrCodePacketIncomplete: http.StatusUnprocessableEntity,

	ErrCodeProviderUnavailable: http.StatusServiceUnavailable,
	ErrCodeProviderRateLimited: http.StatusTooManyRequests,
	ErrCodeProviderAuthFailed:  http.StatusBadGateway,
	ErrCodeProviderParseError:  http.StatusBadGateway,
	ErrCodeProviderTimeout:     http.StatusGatewayTimeout,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",

	ErrCodeDealNotFound:      "deal not found",
	ErrCodeDealAlreadyExists: "deal already exists",
	ErrCodeDealInvalidStage:  "invalid deal stage",
	ErrCodeFundNotFound:      "fund not found",
	ErrCodeStrategyNotFound:  "investment strategy not found",

	ErrCodeWeightSumInvalid:      "criteria weights do not sum to 100",
	ErrCodeTemplateInvalid:       "criteria template is invalid",
	ErrCodeFundTypeUnsupported:   "unsupported fund type",
	ErrCodeScoreOutOfRange:       "score outside [0,100]",
	ErrCodeTargetParamsInvalid:   "target parameters are invalid",
	ErrCodeAnalysisResultMissing: "analysis result not found",

	ErrCodeEnrichmentFailed:     "enrichment run failed",
	ErrCodePackUnknown:          "unknown enrichment pack",
	ErrCodePackDisabled:         "enrichment pack disabled by operations",
	ErrCodeExtractionFailed:     "metric extraction failed",
	ErrCodeEnrichmentInProgress: "enrichment already in progress",

	ErrCodeMemoNotFound:     "IC memo not found",
	ErrCodeMemoGenFailed:    "IC memo generation failed",
	ErrCodeExportFailed:     "IC packet export failed",
	ErrCodeExportNotFound:   "IC packet export not found",
	ErrCodeVersionConflict:  "memo version conflict",
	ErrCodePacketIncomplete: "IC packet is missing required sections",

	ErrCodeProviderUnavailable: "research provider unavailable",
	ErrCodeProviderRateLimited: "research provider rate limited",
	ErrCodeProviderAuthFailed:  "research provider authentication failed",
	ErrCodeProviderParseError:  "failed to parse research provider response",
	ErrCodeProviderTimeout:     "research provider timed out",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
