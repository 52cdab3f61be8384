// Package server is the contentforge JSON API.
//
// # Routing
//
// [BasicRouter] wraps [http.ServeMux] method patterns ("GET /api/projects/{id}") with a middleware
// stack. Every route gets panic recovery and request logging; routes that act for a user are
// wrapped by the auth middleware, which resolves the caller from an X-User-ID header or a bearer
// token, or falls back to the configured dev user when auth bypass is on.
//
// # Errors
//
// Failures are written as {"error", "code", "status"}. Known sentinels map to fixed codes through
// [shared.AsAppError]; anything else gets the route's fallback code with a 500. Raw error text is
// logged and never returned.
//
// # YouTube OAuth
//
// [YouTubeCallbackHandler] finishes the consent flow. The API server registers it and redirects
// the browser back to the settings page; the CLI mounts it on a short-lived local server and
// waits on [YouTubeCallbackHandler.Result].
package server
