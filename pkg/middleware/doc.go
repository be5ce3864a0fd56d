// Package middleware provides the request gates applied in front of
// protected handlers: authentication, admin-only, and role checks, plus
// request ID tagging and access logging.
package middleware
