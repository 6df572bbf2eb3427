package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindProviderUnavailable
	KindProviderTimeout
	KindProviderRejected
)

// Error is a domain error carrying enough information to be rendered at the HTTP boundary.
// Two errors match with errors.Is when their codes are equal.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details any
	Err     error
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Withf returns a copy with a more specific message.
func (e *Error) Withf(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// WithDetails returns a copy carrying details rendered in the response body.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap returns a copy with err as the underlying cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindProviderRejected:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindProviderUnavailable:
		return http.StatusBadGateway
	case KindProviderTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// KindOf reports the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrValidation        = New(KindValidation, "validation_error", "invalid request")
	ErrInvalidQuantity   = New(KindValidation, "invalid_quantity", "quantity must be at least 1")
	ErrEmptyCart         = New(KindValidation, "empty_cart", "cart has no items to check out")
	ErrOrderNotPayable   = New(KindValidation, "order_not_payable", "order cannot be paid in its current state")
	ErrInvalidPayload    = New(KindValidation, "invalid_payload", "invalid webhook payload")
	ErrProductNotFound   = New(KindNotFound, "product_not_found", "product not found")
	ErrItemNotFound      = New(KindNotFound, "item_not_found", "item not found in cart")
	ErrCartNotFound      = New(KindNotFound, "cart_not_found", "no active cart found")
	ErrOrderNotFound     = New(KindNotFound, "order_not_found", "order not found")
	ErrPaymentNotFound   = New(KindNotFound, "payment_not_found", "payment not found")
	ErrInvalidTransition = New(KindConflict, "invalid_transition", "status transition not allowed")
	ErrCartChanged       = New(KindConflict, "cart_changed", "cart changed during checkout, retry")
	ErrUnauthorized      = New(KindUnauthorized, "unauthorized", "missing or invalid bearer token")
	ErrForbidden         = New(KindForbidden, "forbidden", "insufficient role")

	ErrProviderUnavailable = New(KindProviderUnavailable, "provider_unavailable", "payment provider unavailable, retry later")
	ErrProviderTimeout     = New(KindProviderTimeout, "provider_unavailable", "payment provider timed out, retry later")
	ErrProviderRejected    = New(KindProviderRejected, "provider_rejected", "payment provider rejected the request")
	ErrPaymentInitFailed   = New(KindProviderRejected, "payment_init_failed", "failed to initialize payment")
	ErrVerificationFailed  = New(KindProviderRejected, "verification_failed", "payment verification failed")
)
