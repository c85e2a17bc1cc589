package apiErrors

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// Validation errors
	ErrInvalidRequest      = "VAL_001" // malformed request or record
	ErrMissingRequiredData = "VAL_002" // required field missing
	ErrInvalidFormat       = "VAL_003" // unparseable value
	ErrPayloadTooLarge     = "VAL_004" // import exceeds row or size limit

	// Resource errors
	ErrResourceNotFound = "RES_001" // client, item or job not found
	ErrConflict         = "RES_002" // state conflict, e.g. item already sold

	// Server errors
	ErrInternalServer    = "SRV_001"
	ErrDatabaseOperation = "SRV_002"
	ErrExternalService   = "SRV_003" // cache or other dependency
	ErrCommunication     = "SRV_004"
)

var httpStatusMap = map[string]int{
	ErrInvalidRequest:      http.StatusBadRequest,
	ErrMissingRequiredData: http.StatusBadRequest,
	ErrInvalidFormat:       http.StatusBadRequest,
	ErrPayloadTooLarge:     http.StatusRequestEntityTooLarge,
	ErrResourceNotFound:    http.StatusNotFound,
	ErrConflict:            http.StatusConflict,
	ErrInternalServer:      http.StatusInternalServerError,
	ErrDatabaseOperation:   http.StatusInternalServerError,
	ErrExternalService:     http.StatusBadGateway,
	ErrCommunication:       http.StatusServiceUnavailable,
}

// APIError is the error body returned by every endpoint.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func (e APIError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// StatusFor returns the HTTP status mapped to code, 500 when unknown.
func StatusFor(code string) int {
	status, exists := httpStatusMap[code]
	if !exists {
		return http.StatusInternalServerError
	}
	return status
}

// WriteError writes the standard error body for code.
func WriteError(w http.ResponseWriter, code string, message string, details any) {
	apiErr := APIError{
		Code:    code,
		Message: message,
		Details: details,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(code))
	_ = json.NewEncoder(w).Encode(apiErr)
}

// Coded is implemented by domain errors that know their API error code.
type Coded interface {
	error
	ErrorCode() string
}

// FromError wraps err into an APIError. Errors implementing Coded keep their
// own code; fallback is used otherwise.
func FromError(err error, fallback string) APIError {
	if err == nil {
		return APIError{
			Code:    ErrInternalServer,
			Message: "unknown error",
		}
	}

	code := fallback
	var coded Coded
	if errors.As(err, &coded) && coded.ErrorCode() != "" {
		code = coded.ErrorCode()
	}

	return APIError{
		Code:    code,
		Message: err.Error(),
	}
}

// Write writes err using FromError.
func Write(w http.ResponseWriter, err error, fallback string) {
	apiErr := FromError(err, fallback)
	WriteError(w, apiErr.Code, apiErr.Message, nil)
}
