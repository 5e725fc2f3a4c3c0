// Package checkout composes the checkout subsystem for a host application:
// it builds the logger, the marketplace API client, the per-variant gateway
// adapter registry and the profile syncer from one configuration struct, and
// hands out ready-to-drive checkout sessions.
//
// The host integrates through Hooks: a bearer token source, an accessor for
// the cached user profile and a callback that replaces it after a completed
// purchase. No ambient globals are involved.
//
// A CatalogSource supplies a static plan catalog and checkout bootstrap
// payload for offline or preview use, either in-memory or from a YAML file.
package checkout
