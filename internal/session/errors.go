package session

import (
	"fmt"
	"net/http"
)

// Kind classifies a failed cart operation
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindInsufficientStock  Kind = "insufficient_stock"
	KindProductUnavailable Kind = "product_unavailable"
	KindInvalidArgument    Kind = "invalid_argument"
	KindUnauthorized       Kind = "unauthorized"
	KindRateLimited        Kind = "rate_limited"
	KindNetwork            Kind = "network"
	KindServer             Kind = "server_error"
)

// CartError is returned by every failed session and client call.
// Status is zero when no HTTP response was received.
type CartError struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *CartError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CartError) Unwrap() error {
	return e.Err
}

var (
	// ErrLoginRequired is returned when a cart call is made without a token
	ErrLoginRequired = &CartError{Kind: KindUnauthorized, Message: "Please login to add items to your cart"}

	// ErrInvalidQuantity is returned for quantities below 1 before any request
	ErrInvalidQuantity = &CartError{Kind: KindInvalidArgument, Message: "Quantity must be at least 1"}
)

// kindFor prefers the kind reported by the server and falls back to the status
func kindFor(code string, status int) Kind {
	switch Kind(code) {
	case KindNotFound, KindInsufficientStock, KindProductUnavailable,
		KindInvalidArgument, KindUnauthorized, KindRateLimited, KindServer:
		return Kind(code)
	case "forbidden":
		return KindUnauthorized
	}

	switch {
	case status == http.StatusBadRequest:
		return KindInvalidArgument
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindServer
	}
}
