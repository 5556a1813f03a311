package apperrors

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies an error for the HTTP boundary
type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindValidation      Kind = "VALIDATION_FAILED"
	KindConflict        Kind = "CONFLICT"
	KindForbidden       Kind = "FORBIDDEN"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindInternal        Kind = "INTERNAL"
)

// Error is the structured error returned by services and validators.
// Code identifies the specific condition (e.g. ALREADY_REFERRED) so callers
// can match with errors.Is without comparing messages.
type Error struct {
	Kind    Kind              `json:"kind"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches on Kind+Code so wrapped copies of a sentinel still compare equal
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Wrap returns a copy of e carrying cause
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

// Sentinel errors for the referral and inventory transactions
var (
	ErrAlreadyReferred       = &Error{Kind: KindConflict, Code: "ALREADY_REFERRED", Message: "Referral code already applied"}
	ErrInvalidReferralCode   = &Error{Kind: KindNotFound, Code: "INVALID_CODE", Message: "Invalid referral code"}
	ErrSelfReferral          = &Error{Kind: KindConflict, Code: "SELF_REFERRAL", Message: "Cannot use your own referral code"}
	ErrReferralCycle         = &Error{Kind: KindConflict, Code: "REFERRAL_CYCLE", Message: "Referral would create a cycle"}
	ErrInsufficientInventory = &Error{Kind: KindConflict, Code: "INSUFFICIENT_INVENTORY", Message: "Not enough mystery bags left"}
	ErrBagNotActive          = &Error{Kind: KindConflict, Code: "BAG_NOT_ACTIVE", Message: "Mystery bag is not active"}
	ErrBagExpired            = &Error{Kind: KindConflict, Code: "BAG_EXPIRED", Message: "Pickup window has closed"}
	ErrAlreadyReviewed       = &Error{Kind: KindConflict, Code: "ALREADY_REVIEWED", Message: "This purchase has already been reviewed"}
	ErrInvalidOTP            = &Error{Kind: KindValidation, Code: "INVALID_OTP", Message: "Invalid or expired OTP"}
)

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: what + " not found"}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: msg}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Code: "UNAUTHENTICATED", Message: msg}
}

func Conflict(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL", Message: msg, cause: cause}
}

// Validation builds a ValidationFailed error from per-field messages
func Validation(fields map[string]string) *Error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	msg := "Validation failed"
	if len(keys) == 1 {
		msg = fields[keys[0]]
	} else if len(keys) > 1 {
		sort.Strings(keys)
		msg = "Validation failed for " + strings.Join(keys, ", ")
	}
	return &Error{Kind: KindValidation, Code: "VALIDATION_FAILED", Message: msg, Fields: fields}
}

// Invalid is a single-field shorthand for Validation
func Invalid(field, msg string) *Error {
	return Validation(map[string]string{field: msg})
}

// HTTPStatus maps an error to the status the boundary should return
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
