// Package checkout orchestrates one purchase attempt as an explicit state
// machine. The session owns the selected payment method, the billing form
// snapshot and the coupon state; every UI flag (loading, modal visible,
// webview visible) derives from the single Status value instead of being
// tracked independently.
//
// # Architecture
//
// A session moves through a fixed transition table:
//
//	Idle → MethodSelected → Validating → Submitting → Completed
//	                 ↑            |           |            |
//	                 └────────────┘           └→ Awaiting* ┘
//	                 (validation failure)          |
//	                 ↑─────── Rejected ←───────────┘
//
// Submitting either completes immediately, rejects, or parks in one of the
// Awaiting* states with a pending handle. Pending attempts resolve through a
// single-shot confirmation bridge: out-of-band events (webview navigations,
// native SDK callbacks, challenge results) are normalized to one signal, the
// variant's adapter runs any confirm/verify round trip, and the resulting
// outcome drives the final transition. Exactly one outcome is honored per
// attempt; late signals after teardown are no-ops.
//
// Rejected is re-enterable: billing data and coupon state survive, and
// selecting a method again starts a fresh attempt.
//
// # Concurrency
//
// All session mutation happens on the caller's goroutine. The session follows
// a single UI-thread model and is not goroutine-safe; the bridge's single-shot
// guard is what makes duplicate completion events harmless, not locking.
//
// # Usage
//
//	sess, err := checkout.New(ctx, plan, intent, deps)
//	if err != nil {
//		return err
//	}
//	if err := sess.SelectMethod("stripe"); err != nil {
//		return err
//	}
//	sess.SetCard(card)
//	if err := sess.Submit(ctx); err != nil {
//		var missing billing.MissingFields
//		if errors.As(err, &missing) {
//			showAlert(missing.Labels())
//		}
//	}
package checkout
