// Package config loads and validates the screener's YAML configuration.
package config
