// Package contract holds the vocabulary shared by every layer of the loader:
// compiled units, executable handles, operation names and the error kinds
// surfaced to callers.
//
// A contract (or module) is a named archive of compiled units. Exactly one of
// those units is the entry unit; it exposes the public operations `main`, `tx`
// and `query` through a Handle.
package contract
