// Package errors provides the error type returned by every ledger operation.
// Services return *AppError values built from the sentinels below so the HTTP
// layer can map them to a status code without leaking store internals.
package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind classifies an AppError independently of its specific code.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindValidation       Kind = "validation_failed"
	KindPermissionDenied Kind = "permission_denied"
	KindImmutableState   Kind = "immutable_state"
	KindUnauthorized     Kind = "unauthorized"
	KindInternal         Kind = "internal"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Kind       Kind   `json:"-"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Kind:       sentinel.Kind,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Kind:       sentinel.Kind,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// KindOf reports the kind of err, or KindInternal when err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func newError(kind Kind, status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Kind: kind, StatusCode: status}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized = newError(KindUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	ErrForbidden    = newError(KindPermissionDenied, http.StatusForbidden, "FORBIDDEN", "Access denied")
)

// General errors.
var (
	ErrInvalidInput     = newError(KindValidation, http.StatusBadRequest, "INVALID_INPUT", "Invalid input")
	ErrValidationFailed = newError(KindValidation, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Validation failed")
	ErrNotFound         = newError(KindNotFound, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrConflict         = newError(KindConflict, http.StatusConflict, "CONFLICT", "Resource conflicts with existing state")
	ErrDuplicateName    = newError(KindConflict, http.StatusConflict, "DUPLICATE_NAME", "A resource with this name already exists")
	ErrResourceInUse    = newError(KindConflict, http.StatusConflict, "RESOURCE_IN_USE", "Resource is referenced by existing transactions")
	ErrInternalServer   = newError(KindInternal, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
)

// User errors.
var (
	ErrUserNotFound   = newError(KindNotFound, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	ErrDuplicateEmail = newError(KindConflict, http.StatusConflict, "DUPLICATE_EMAIL", "A user with this email already exists")
)

// Account errors.
var (
	ErrAccountNotFound = newError(KindNotFound, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found")
)

// Credit card and invoice errors.
var (
	ErrCreditCardNotFound   = newError(KindNotFound, http.StatusNotFound, "CREDIT_CARD_NOT_FOUND", "Credit card not found")
	ErrSameDayBillingCycle  = newError(KindValidation, http.StatusUnprocessableEntity, "SAME_DAY_BILLING_CYCLE", "Closing day and due day must differ")
	ErrInvoiceNotFound      = newError(KindNotFound, http.StatusNotFound, "INVOICE_NOT_FOUND", "Invoice not found")
	ErrInvoiceHasNoCharges  = newError(KindNotFound, http.StatusNotFound, "INVOICE_HAS_NO_CHARGES", "Invoice has no transactions to settle")
	ErrInvoiceAlreadyPaid   = newError(KindConflict, http.StatusConflict, "INVOICE_ALREADY_PAID", "Invoice has already been paid")
	ErrBillingCycleNotReady = newError(KindValidation, http.StatusUnprocessableEntity, "BILLING_CYCLE_NOT_CONFIGURED", "Credit card has no billing cycle configured")
)

// Category errors.
var (
	ErrCategoryNotFound = newError(KindNotFound, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
	ErrCategoryInUse    = newError(KindConflict, http.StatusConflict, "CATEGORY_IN_USE", "Category is used by existing transactions")
)

// Relative errors.
var (
	ErrRelativeNotFound = newError(KindNotFound, http.StatusNotFound, "RELATIVE_NOT_FOUND", "Relative not found")
)

// Transaction errors.
var (
	ErrTransactionNotFound  = newError(KindNotFound, http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found")
	ErrSplitSumMismatch     = newError(KindValidation, http.StatusUnprocessableEntity, "SPLIT_SUM_MISMATCH", "Split amounts must add up to the transaction amount")
	ErrSameAccountTransfer  = newError(KindValidation, http.StatusUnprocessableEntity, "SAME_ACCOUNT_TRANSFER", "Cannot transfer to the same account")
	ErrInvalidPaymentPlan   = newError(KindValidation, http.StatusUnprocessableEntity, "INVALID_PAYMENT_PLAN", "Invalid payment plan for this transaction")
	ErrInvalidTypeChange    = newError(KindValidation, http.StatusUnprocessableEntity, "INVALID_TYPE_CHANGE", "Cannot change transaction type to or from transfer")
	ErrImmutableTransaction = newError(KindImmutableState, http.StatusConflict, "IMMUTABLE_TRANSACTION", "Transaction belongs to a paid invoice and cannot be changed")
	ErrAlreadyApplied       = newError(KindInternal, http.StatusInternalServerError, "LEDGER_STATE_MISMATCH", "Ledger effect already in the requested state")
)
