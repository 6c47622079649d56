package dto

import (
	"net/http"

	"github.com/erp/stocktransfer/internal/domain/shared"
)

// Transport-only error codes. Domain codes come from the shared package.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "TOKEN_INVALID"
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	shared.CodeValidation:        http.StatusBadRequest,
	ErrCodeBadRequest:            http.StatusBadRequest,
	ErrCodeInvalidJSON:           http.StatusBadRequest,
	shared.CodeUnauthorized:      http.StatusUnauthorized,
	ErrCodeTokenExpired:          http.StatusUnauthorized,
	ErrCodeTokenInvalid:          http.StatusUnauthorized,
	shared.CodeNotFound:          http.StatusNotFound,
	shared.CodePersistence:       http.StatusConflict,
	shared.CodeConflict:          http.StatusConflict,
	ErrCodePayloadTooLarge:       http.StatusRequestEntityTooLarge,
	shared.CodeInvalidState:      http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock: http.StatusUnprocessableEntity,
	shared.CodeReference:         http.StatusUnprocessableEntity,
	ErrCodeInternal:              http.StatusInternalServerError,
}

// legacyCodes folds the generic shared sentinels onto the wire codes
var legacyCodes = map[string]string{
	"INVALID_INPUT":  shared.CodeValidation,
	"ALREADY_EXISTS": shared.CodePersistence,
	"FORBIDDEN":      shared.CodeUnauthorized,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode maps legacy codes onto the published ones
func NormalizeErrorCode(code string) string {
	if mapped, ok := legacyCodes[code]; ok {
		return mapped
	}
	return code
}

// IsClientError reports whether the code maps to a 4xx status
func IsClientError(code string) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}
