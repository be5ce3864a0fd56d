// Package config loads application configuration from an optional YAML
// file overlaid by RMB_-prefixed environment variables. Environment
// variables always win over file values.
package config
