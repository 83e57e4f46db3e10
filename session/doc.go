// Package session holds the client-side authentication state: a bearer token and the
// username it was issued for.
//
// # Storage
//
// State lives in a [Store], a plain string key-value store with the keys [KeyToken]
// and [KeyUsername]. Three backends ship with the package: [MemoryStore] (default),
// [FileStore] (a JSON document on disk, used by the CLI) and [RedisStore]. Values have
// no TTL and are not encrypted.
//
// # Context
//
// [Context] is the injectable session object handed to the navigation guard and the
// HTTP interceptors. It writes token and username together on login and clears them
// together on logout or authentication failure. Clear is idempotent.
//
// # What this package must NOT do
//
//   - Validate or refresh tokens.
//   - Make navigation decisions (see package router).
//   - Perform HTTP I/O.
package session
