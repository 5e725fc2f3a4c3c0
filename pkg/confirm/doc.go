// Package confirm normalizes out-of-band completion signals (webview
// navigation events, native SDK callbacks, client-side challenge results,
// surface dismissals) into the gateway Signal vocabulary.
//
// A Bridge is single-shot per pending attempt: the first matching signal wins
// and closes the bridge, and every later event is discarded rather than
// re-processed. This is what prevents a redirect chain that hits the success
// marker twice from double-crediting a completion.
package confirm
