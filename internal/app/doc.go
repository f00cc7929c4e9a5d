// Package app is the composition root of the contract host. It builds the
// logger, the module registry, the materializers, the host services and the
// dispatcher from a config.Model, preloads the common library and runs one
// invocation, decoupled from any specific entrypoint like a CLI.
package app
