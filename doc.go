// Package account implements the account flows of a single blog: login,
// registration, logout, first-run initialization and profile editing.
//
// Workflow:
//   - Workflow holds the flow logic and returns an Outcome, a redirect or a
//     themed view ("themes/<theme>/<view>") with its model. It talks to a
//     CredentialStore, a SiteStore and a BlogInitializer and never to HTTP.
//   - AccountController binds forms into the request payloads, hands them to
//     the Workflow and renders the Outcome. RegisterAccountRoutes mounts it on
//     any go-router Router, e.g. the fiber adapter.
//
// Persistence:
//   - Users and BlogSettings are bun models served through go-repository-bun
//     repositories. The blogs table holds at most one
//     row with the fixed key SingletonBlogID, which is what keeps first-run
//     initialization from running twice.
//
// Sessions:
//   - CookieSessions stores a signed JWT in an HTTP only cookie. Signing out
//     clears the cookie and, with a Revoker configured, blocks the token id
//     until it expires.
//
// Activity sinks:
//   - ActivitySink receives login, registration, initialization, profile and
//     logout events. Sinks run best effort; errors are logged.
package account
