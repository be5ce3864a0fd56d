// Package observability provides Prometheus metrics for the HTTP layer
// and the login flow.
package observability
