// Package cli is responsible for parsing command-line arguments and flags
// to create the application's runtime configuration.
package cli
