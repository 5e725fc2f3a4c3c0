package api

import (
	"errors"
	"fmt"
)

var (
	ErrMissingBaseURL = errors.New("api base URL is required")
	ErrMissingToken   = errors.New("bearer token is not available")

	ErrRequestTimeout = errors.New("request timed out")
	ErrNetwork        = errors.New("network request failed")
	ErrDecoding       = errors.New("failed to decode response body")

	ErrConfirmDeclined = errors.New("payment confirmation declined")
	ErrVerifyDeclined  = errors.New("payment verification declined")
)

// Error is a structured backend failure carrying the HTTP status and the
// backend's code/message pair.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return fmt.Sprintf("request failed with code %s", e.Code)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// IsAPIError reports whether err carries a structured backend failure.
func IsAPIError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// CouponDeclinedError is returned when the backend rejects a coupon code.
// The message is human-readable and safe to display on the form; a declined
// coupon never blocks checkout itself.
type CouponDeclinedError struct {
	Code    string
	Message string
}

func (e *CouponDeclinedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "coupon code was not accepted"
}

func IsCouponDeclinedError(err error) bool {
	var e *CouponDeclinedError
	return errors.As(err, &e)
}
