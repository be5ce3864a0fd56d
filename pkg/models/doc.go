// Package models defines the user entity and its role/status enumerations
// shared by the store, auth, and API layers.
package models
