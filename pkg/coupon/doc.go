// Package coupon applies and removes discount codes against a plan during
// checkout.
//
// Apply calls are strictly serialized: a new apply first clears the previous
// result (applied code, discount info and error together) before the request
// goes out, so a stale discount can never render beside an in-flight request.
// An overlapping apply is refused with ErrApplyInProgress rather than queued.
//
// A zero-amount discount is a valid applied state: applied-ness is determined
// by the presence of the server result, never by comparing the discount
// against zero.
package coupon
