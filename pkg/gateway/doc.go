// Package gateway defines the payment gateway adapter contract and its five
// protocol variants: tokenizing card, raw card, server redirect, native SDK,
// and hosted checkout.
//
// Each adapter knows how to collect its gateway-specific input, submit a
// checkout request, and interpret the response. Submit resolves immediately
// (Completed or Rejected) or hands back a PendingHandle describing the
// out-of-band confirmation the host must run (3-D Secure challenge, webview
// redirect, native SDK dialog, hosted checkout page). The confirmation bridge
// normalizes whatever comes back into a Signal, and the adapter's Resolve
// finalizes the attempt, running the confirm or verification round trip
// where its protocol demands one.
//
// Adding a gateway means adding one Adapter implementation and a variant
// mapping entry; the orchestrator never branches on gateway identifiers.
//
// # Outcome vocabulary
//
// Every attempt ends in exactly one Outcome: Completed carrying the server's
// order record, Pending carrying a handle, or Rejected carrying a Rejection
// with a non-empty user-displayable message. Rejection reasons distinguish a
// gateway decline from a timeout, a connectivity failure, and the two normal
// cancel paths (surface closed, native dialog dismissed), so the UI can offer
// "retry" instead of "change payment method" where that is the right call.
package gateway
