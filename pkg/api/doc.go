// Package api implements the typed client for the marketplace checkout REST
// contract.
//
// The client covers exactly the surface the checkout engine consumes: checkout
// bootstrap data, coupon validation, checkout submission, the per-gateway
// confirm/verify endpoints, best-effort order cancellation, and the profile
// refresh used after a completed purchase.
//
// # Authentication
//
// A TokenSource callback supplies the bearer token. The token is attached to
// the outgoing *http.Request only; it is never stored on the client or on a
// durable header set, so it detaches automatically when the call resolves.
//
// # Error taxonomy
//
// Transport failures and timeouts map to ErrNetwork and ErrRequestTimeout so
// callers can distinguish "retry the same method" from a gateway decline.
// Structured backend failures surface as *Error with the backend code and
// message; coupon rejections as *CouponDeclinedError.
package api
