// Package config loads and validates the service configuration from
// YAML. A missing file or a partial file is fine: Default supplies
// every value, and Load merges the file over the defaults.
package config
