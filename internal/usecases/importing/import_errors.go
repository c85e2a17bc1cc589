package importing

import (
	"errors"
	"fmt"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/apiErrors"
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "ValidationError"
	KindDuplicate    ErrorKind = "DuplicateError"
	KindNotFound     ErrorKind = "NotFoundError"
	KindInvalidState ErrorKind = "InvalidStateError"
	KindAttribution  ErrorKind = "AttributionError"
	KindAggregation  ErrorKind = "AggregationError"
	KindStorage      ErrorKind = "StorageError"
)

var (
	// Record validation
	ErrMissingIdentity = errors.New("customer code, email and name are all empty")
	ErrMissingSerial   = errors.New("item serial is required")
	ErrInvalidPrice    = errors.New("sale price must be a positive amount")
	ErrMissingDate     = errors.New("sale date is missing or invalid")
	ErrMalformedRow    = errors.New("malformed import row")
	ErrTooManyRows     = errors.New("import exceeds the maximum number of rows")

	// Inventory
	ErrItemNotFound       = errors.New("inventory item not found")
	ErrItemNotSellable    = errors.New("inventory item is not in stock")
	ErrUnsupportedTarget  = errors.New("unsupported inventory transition")
	ErrDuplicateSale      = errors.New("sale already recorded")
	ErrUnknownAttribution = errors.New("unknown attribution code")

	// Post-commit
	ErrStatsRecompute = errors.New("client statistics recompute failed")
)

// ImportError carries the record-scoped failure category used to build the
// import report.
type ImportError struct {
	Err     error     // base error
	Kind    ErrorKind // report category
	Code    string    // API error code
	Ref     string    // serial, client id or attribution code involved
	Details string
	Cause   error // underlying storage error, when any
}

func (e *ImportError) Error() string {
	msg := e.Err.Error()
	if e.Ref != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Ref)
	}
	if e.Details != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Details)
	}
	return msg
}

func (e *ImportError) ErrorCode() string {
	return e.Code
}

func (e *ImportError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NewValidationError(err error, details string) *ImportError {
	return &ImportError{
		Err:     err,
		Kind:    KindValidation,
		Code:    apiErrors.ErrInvalidRequest,
		Details: details,
	}
}

func newTooManyRowsError(limit int) *ImportError {
	err := NewValidationError(ErrTooManyRows, fmt.Sprintf("limit is %d rows", limit))
	err.Code = apiErrors.ErrPayloadTooLarge
	return err
}

func NewNotFoundError(serial string) *ImportError {
	return &ImportError{
		Err:  ErrItemNotFound,
		Kind: KindNotFound,
		Code: apiErrors.ErrResourceNotFound,
		Ref:  serial,
	}
}

func NewInvalidStateError(serial string, current domain.InventoryStatus) *ImportError {
	return &ImportError{
		Err:     ErrItemNotSellable,
		Kind:    KindInvalidState,
		Code:    apiErrors.ErrConflict,
		Ref:     serial,
		Details: fmt.Sprintf("current status is %s", current),
	}
}

func NewDuplicateError(existingSaleID string) *ImportError {
	return &ImportError{
		Err:  ErrDuplicateSale,
		Kind: KindDuplicate,
		Code: apiErrors.ErrConflict,
		Ref:  existingSaleID,
	}
}

func NewAttributionError(field, code string) *ImportError {
	return &ImportError{
		Err:     ErrUnknownAttribution,
		Kind:    KindAttribution,
		Code:    apiErrors.ErrInvalidRequest,
		Ref:     code,
		Details: fmt.Sprintf("%s is not in the reference list", field),
	}
}

func NewAggregationError(clientID string, cause error) *ImportError {
	return &ImportError{
		Err:     ErrStatsRecompute,
		Kind:    KindAggregation,
		Code:    apiErrors.ErrDatabaseOperation,
		Ref:     clientID,
		Details: cause.Error(),
		Cause:   cause,
	}
}

// KindOf classifies err; anything that is not an ImportError is a storage failure.
func KindOf(err error) ErrorKind {
	var importErr *ImportError
	if errors.As(err, &importErr) {
		return importErr.Kind
	}
	return KindStorage
}

func outcomeFor(kind ErrorKind) domain.ImportOutcome {
	switch kind {
	case KindValidation:
		return domain.OutcomeRejectedValidation
	case KindDuplicate:
		return domain.OutcomeSkippedDuplicate
	case KindNotFound, KindInvalidState:
		return domain.OutcomeRejectedInventoryState
	case KindAttribution:
		return domain.OutcomeRejectedAttribution
	case KindAggregation:
		return domain.OutcomeCommittedStatsStale
	default:
		return domain.OutcomeFailed
	}
}
