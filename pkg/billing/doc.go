// Package billing maintains the dynamic billing form state during a checkout
// session: the server-supplied field schema, per-country locale rules, the
// mutable billing data record, and the touched-field set that gates inline
// error display.
//
// The required-field set is never widened beyond the schema: choosing a
// country may only narrow it (drop state/postcode when the country's locale
// rule marks them optional) and a field a rule marks hidden is never required.
// Validation always recomputes against the current country's rule, never a
// cached requirement list.
package billing
