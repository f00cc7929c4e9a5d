// Package config defines the format-agnostic host configuration and the
// loaders that read it from HCL or YAML files.
//
// The `config.Model` is the single source of truth for where archives live,
// which backends serve the host services and how the process logs. Values
// missing from the file fall back to Default; command-line flags are applied
// on top by the cli package.
package config
