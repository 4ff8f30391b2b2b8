package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrorKind classifies expected business failures so handlers can map them
// to a status code. Anything that is not a *LedgerError is an infrastructure
// failure (DB down, deadlock, lock timeout) and propagates as-is.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindInvariant  ErrorKind = "invariant"
	KindNotFound   ErrorKind = "not_found"
)

// LedgerError is returned for validation, invariant and not-found failures.
// The record it concerns is always left unchanged.
type LedgerError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *LedgerError) Error() string { return e.Code + ": " + e.Message }

func validationErr(code, format string, args ...interface{}) error {
	return &LedgerError{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func invariantErr(code, format string, args ...interface{}) error {
	return &LedgerError{Kind: KindInvariant, Code: code, Message: fmt.Sprintf(format, args...)}
}

func notFoundErr(code, format string, args ...interface{}) error {
	return &LedgerError{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error codes.
const (
	CodeInvalidQuantity = "invalid_quantity"
	CodeInvalidReason   = "invalid_reason"
	CodeInvalidDate     = "invalid_date"
	CodeInvalidStatus   = "invalid_status"
	CodeInvalidInput    = "invalid_input"
	CodeNegativeStock   = "negative_stock"
	CodeNoAvailability  = "no_availability"
	CodeCapacityBelow   = "capacity_below_booked"
	CodeAlreadyVoid     = "already_void"
	CodeVariantNotFound = "variant_not_found"
	CodeProductNotFound = "product_not_found"
	CodeBookingNotFound = "booking_not_found"
	CodeInvoiceNotFound = "invoice_not_found"
)

// KindOf returns the kind of a LedgerError anywhere in err's chain, or "".
func KindOf(err error) ErrorKind {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// IsCode reports whether err is a LedgerError with the given code.
func IsCode(err error, code string) bool {
	var le *LedgerError
	return errors.As(err, &le) && le.Code == code
}

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }
