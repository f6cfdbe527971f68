// Package apperr is the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups errors by how the boundary should answer them.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindNotFound
	KindBusinessRule
	KindPaymentFailed
	KindPaymentTimeout
	KindUnauthorized
)

// Stable machine-readable codes.
const (
	CodeValidation        = "validation_failed"
	CodeNotFound          = "not_found"
	CodeEmptyCart         = "empty_cart"
	CodeUnavailable       = "unavailable"
	CodeItemUnavailable   = "item_unavailable"
	CodeInsufficientStock = "insufficient_stock"
	CodeInvalidTransition = "invalid_status_transition"
	CodeBusinessRule      = "business_rule_violation"
	CodePaymentFailed     = "payment_failed"
	CodePaymentTimeout    = "payment_timeout"
	CodeUnauthorized      = "unauthorized"
	CodeUnexpected        = "unexpected"
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationFailed"
	case KindNotFound:
		return "NotFound"
	case KindBusinessRule:
		return "BusinessRuleViolation"
	case KindPaymentFailed:
		return "PaymentFailed"
	case KindPaymentTimeout:
		return "PaymentTimeout"
	case KindUnauthorized:
		return "Unauthorized"
	default:
		return "Unexpected"
	}
}

// HTTPStatus is the response status for errors of this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindBusinessRule, KindPaymentFailed:
		return http.StatusBadRequest
	case KindPaymentTimeout:
		return http.StatusGatewayTimeout
	case KindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same Kind and Code, so callers can
// compare against the sentinel constructors with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// KindOf returns the kind of err, or KindUnexpected for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnexpected
}

// CodeOf returns the code of err, or CodeUnexpected.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnexpected
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message, Fields: fields}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: what + " not found"}
}

func BusinessRule(code, message string) *Error {
	return &Error{Kind: KindBusinessRule, Code: code, Message: message}
}

func BusinessRulef(code, format string, args ...interface{}) *Error {
	return BusinessRule(code, fmt.Sprintf(format, args...))
}

func EmptyCart() *Error {
	return BusinessRule(CodeEmptyCart, "Your cart is empty")
}

func Unavailable(mealName string) *Error {
	return BusinessRulef(CodeUnavailable, "%s is not available", mealName)
}

func ItemUnavailable(mealName string) *Error {
	return BusinessRulef(CodeItemUnavailable, "%s is no longer available", mealName)
}

func InsufficientStock(mealName string, available int) *Error {
	return BusinessRulef(CodeInsufficientStock, "Not enough stock for %s (only %d left)", mealName, available)
}

func PaymentFailed(reason string, err error) *Error {
	return &Error{Kind: KindPaymentFailed, Code: CodePaymentFailed, Message: "Payment failed: " + reason, Err: err}
}

func PaymentTimeout(err error) *Error {
	return &Error{Kind: KindPaymentTimeout, Code: CodePaymentTimeout, Message: "Payment provider did not respond in time", Err: err}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: CodeUnauthorized, Message: message}
}

// Unexpected wraps an internal failure; Message is safe to show clients.
func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Code: CodeUnexpected, Message: "Something went wrong", Err: err}
}
