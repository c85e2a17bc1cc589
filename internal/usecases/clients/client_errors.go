package clients

import (
	"errors"
	"fmt"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/apiErrors"
)

var (
	ErrClientIDRequired  = errors.New("client ID is required")
	ErrClientNotFound    = errors.New("client not found")
	ErrDatabaseOperation = errors.New("database operation error")
	ErrRecalculateStats  = errors.New("error recalculating client statistics")
)

// ClientError adds the API code and the client involved to a base error.
type ClientError struct {
	Err      error
	Code     string
	ClientID string
	Details  string
}

func (e *ClientError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

func (e *ClientError) ErrorCode() string {
	return e.Code
}

func NewClientError(err error, code string, clientID string, details string) *ClientError {
	return &ClientError{
		Err:      err,
		Code:     code,
		ClientID: clientID,
		Details:  details,
	}
}

func notFound(clientID string) *ClientError {
	return NewClientError(ErrClientNotFound, apiErrors.ErrResourceNotFound, clientID, clientID)
}

func databaseError(clientID string, err error) *ClientError {
	return NewClientError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, clientID, err.Error())
}
