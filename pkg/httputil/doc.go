// Package httputil provides HTTP handler utilities for the uniform
// response envelope, JSON request parsing, and request metadata.
package httputil
