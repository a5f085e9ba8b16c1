// Package config loads critique settings from YAML with environment overrides.
//
// Values are layered: built-in defaults, then the YAML file, then CRITIQUE_*
// environment variables (optionally seeded from a .env file). Durations use
// Go syntax such as "500ms" or "168h".
package config
