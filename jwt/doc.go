// Package jwt reads and issues the notes service's HS256 access tokens.
//
// The client never verifies signatures: [Inspect] decodes claims for display
// (username, role, expiry) and the server stays the authority. [Manager] signs and
// verifies tokens for the in-repo test API server.
package jwt
