// Package notes is a typed client for the notes service REST API: authentication
// (/api/auth) and note CRUD (/api/notes).
//
// The package does no authentication bookkeeping of its own. It expects an
// *http.Client whose transport attaches the bearer token and converts HTTP failures
// into errors (see package middleware); the caller decides what to do with a login
// response.
package notes
