// Package auth provides optional bearer-token authentication for the
// gateway API.
//
// Tokens are HS256 JWTs signed with a shared secret. [Middleware] wraps
// API handlers, rejecting requests without a valid Authorization header
// and exposing the token's subject to handlers through
// [CallerFromContext]. The gateway only installs the middleware when a
// secret is configured; without one the API is open.
package auth
