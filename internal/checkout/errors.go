package checkout

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a checkout failure.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindInvalidPromo    Kind = "invalid_promo"
	KindPaymentProvider Kind = "payment_provider"
	KindInternal        Kind = "internal"
)

// Sentinels for errors.Is against a *CheckoutError of the same kind.
var (
	ErrValidation      = &CheckoutError{Kind: KindValidation}
	ErrNotFound        = &CheckoutError{Kind: KindNotFound}
	ErrInvalidPromo    = &CheckoutError{Kind: KindInvalidPromo}
	ErrPaymentProvider = &CheckoutError{Kind: KindPaymentProvider}
	ErrInternal        = &CheckoutError{Kind: KindInternal}
)

// CheckoutError carries a safe public message and a detailed internal one.
type CheckoutError struct {
	Kind          Kind
	PublicError   string
	InternalError string
	Err           error
}

func (e *CheckoutError) Error() string {
	if e.InternalError != "" {
		return e.InternalError
	}
	return string(e.Kind)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

func (e *CheckoutError) Is(target error) bool {
	t, ok := target.(*CheckoutError)
	return ok && t.Kind == e.Kind
}

// StatusCode maps the kind onto the HTTP response status.
func (e *CheckoutError) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindInvalidPromo:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindPaymentProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func validationError(err error) *CheckoutError {
	return &CheckoutError{
		Kind:          KindValidation,
		PublicError:   "invalid request",
		InternalError: fmt.Sprintf("invalid checkout request: %v", err),
		Err:           err,
	}
}

func notFoundError(eventID string, err error) *CheckoutError {
	return &CheckoutError{
		Kind:          KindNotFound,
		PublicError:   "event not found",
		InternalError: fmt.Sprintf("event %s not found", eventID),
		Err:           err,
	}
}

func invalidPromoError(code string, err error) *CheckoutError {
	return &CheckoutError{
		Kind:          KindInvalidPromo,
		PublicError:   "promo code invalid",
		InternalError: fmt.Sprintf("promo code %q rejected: %v", code, err),
		Err:           err,
	}
}

func paymentProviderError(orderID string, err error) *CheckoutError {
	return &CheckoutError{
		Kind:          KindPaymentProvider,
		PublicError:   "internal server error",
		InternalError: fmt.Sprintf("payment session for order %s failed: %v", orderID, err),
		Err:           err,
	}
}

func internalError(step string, err error) *CheckoutError {
	return &CheckoutError{
		Kind:          KindInternal,
		PublicError:   "internal server error",
		InternalError: fmt.Sprintf("%s: %v", step, err),
		Err:           err,
	}
}

// AsCheckoutError returns err as a *CheckoutError, wrapping anything else as internal.
func AsCheckoutError(err error) *CheckoutError {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce
	}
	return internalError("unexpected checkout failure", err)
}
