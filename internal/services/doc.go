// Package services implements the HTTP client for the ride-time prediction backend.
//
// # Backend
//
// [Backend] issues GET requests against the nine endpoints the dashboard consumes.
// Query parameters are always encoded with [url.Values]; the web front-end this
// client replaces concatenated raw values into the URL.
//
// Each call:
//   - waits on a [rate.Limiter] when a rate limit is configured
//   - sends the athlete_id session cookie when one is configured
//   - maps context deadline errors to [shared.ErrTimeout]
//
// Responses are returned raw as [APIResponse] regardless of status; callers decide
// what a non-2xx status means ([APIResponse.Err] wraps [shared.ErrAPIRequest]).
//
// # Endpoints
//
// The endpoint paths are exported as constants ([EndpointDebug], [EndpointPrediction], ...)
// so the action catalog and the fixture server agree on them.
package services
