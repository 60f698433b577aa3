// Package credentials implements the credential lifecycle of end users:
// registration, password authentication, email verification and password
// reset, backed by purpose-scoped signed tokens.
//
// Lifecycle:
//   - Manager drives every transition. A user is created unverified, may be
//     verified exactly once, and can authenticate in either state.
//   - Tokens are HS256 JWTs carrying a purpose claim. A token minted for one
//     purpose is never accepted for another one, and tokens are never stored.
//
// Collaborators:
//   - CredentialStore persists users. The repository subpackage provides a
//     Bun implementation (SQLite, Postgres, MySQL) and an in-memory one.
//   - EventPublisher receives lifecycle events. The webhook subpackage fans
//     them out to HTTP subscribers and optional broker sinks without blocking
//     the caller.
//   - Notifier hands verification and reset tokens to whatever delivers
//     email. Failures there never affect the operation outcome.
package credentials
