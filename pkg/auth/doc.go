// Package auth implements credential verification, signed session
// tokens, and replay protection for the login flow.
//
// Passwords are stored as bcrypt hashes. The login endpoint receives a
// client-side pre-hash (SHA256 of password+username) rather than the
// plaintext, which is checked against a bounded candidate list; see
// PreHashVerifier for the limits of that scheme. Sessions are stateless
// HS256 tokens with a 24 hour lifetime, verified on every request.
package auth
