// Package api wires the HTTP surface of the admin backend: route table,
// authentication endpoints, user management CRUD, and dashboard
// reporting. All endpoints reply with the uniform httputil envelope.
package api
