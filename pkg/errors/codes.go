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

// Common error codes shared by every layer.
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
	ErrCodeNotImplemented     ErrorCode = "COMMON_015"
)

// Claim module error codes.
const (
	ErrCodeClaimNotFound          ErrorCode = "CLM_001"
	ErrCodeClaimUnsupportedFormat ErrorCode = "CLM_002"
	ErrCodeClaimUploadFailed      ErrorCode = "CLM_003"
	ErrCodeClaimExtractionFailed  ErrorCode = "CLM_004"
	ErrCodeClaimPersistFailed     ErrorCode = "CLM_005"
	ErrCodeClaimFeedbackInvalid   ErrorCode = "CLM_006"
)

// Model / scoring error codes.
const (
	ErrCodeModelNotAvailable   ErrorCode = "AI_001"
	ErrCodeModelInferenceError ErrorCode = "AI_002"
	ErrCodeModelArtifactError  ErrorCode = "AI_003"
	ErrCodeModelInputInvalid   ErrorCode = "AI_004"
)

// Event / messaging error codes.
const (
	ErrCodeEventPublishFailed ErrorCode = "EVT_001"
	ErrCodeEventConsumeFailed ErrorCode = "EVT_002"
)

// Storage error codes.
const (
	ErrCodeStorageUploadFailed   ErrorCode = "STO_001"
	ErrCodeStorageObjectNotFound ErrorCode = "STO_002"
)

// Aliases used by factory functions and older call sites.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeUnauthorized = ErrCodeUnauthorized
	CodeForbidden    = ErrCodeForbidden
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeRateLimit    = ErrCodeTooManyRequests
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
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
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeClaimNotFound:          http.StatusNotFound,
	ErrCodeClaimUnsupportedFormat: http.StatusBadRequest,
	ErrCodeClaimUploadFailed:      http.StatusInternalServerError,
	ErrCodeClaimExtractionFailed:  http.StatusInternalServerError,
	ErrCodeClaimPersistFailed:     http.StatusInternalServerError,
	ErrCodeClaimFeedbackInvalid:   http.StatusBadRequest,

	ErrCodeModelNotAvailable:   http.StatusServiceUnavailable,
	ErrCodeModelInferenceError: http.StatusInternalServerError,
	ErrCodeModelArtifactError:  http.StatusInternalServerError,
	ErrCodeModelInputInvalid:   http.StatusBadRequest,

	ErrCodeEventPublishFailed: http.StatusInternalServerError,
	ErrCodeEventConsumeFailed: http.StatusInternalServerError,

	ErrCodeStorageUploadFailed:   http.StatusInternalServerError,
	ErrCodeStorageObjectNotFound: http.StatusNotFound,
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
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeClaimNotFound:          "claim not found",
	ErrCodeClaimUnsupportedFormat: "unsupported claim document format",
	ErrCodeClaimUploadFailed:      "failed to store uploaded claim document",
	ErrCodeClaimExtractionFailed:  "failed to extract claim text",
	ErrCodeClaimPersistFailed:     "failed to persist claim",
	ErrCodeClaimFeedbackInvalid:   "invalid claim feedback",

	ErrCodeModelNotAvailable:   "anomaly model not available",
	ErrCodeModelInferenceError: "anomaly model inference failed",
	ErrCodeModelArtifactError:  "anomaly model artifact is malformed",
	ErrCodeModelInputInvalid:   "invalid input for anomaly model",

	ErrCodeEventPublishFailed: "failed to publish event",
	ErrCodeEventConsumeFailed: "failed to consume event",

	ErrCodeStorageUploadFailed:   "object storage upload failed",
	ErrCodeStorageObjectNotFound: "object not found in storage",
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
