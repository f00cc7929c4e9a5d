// Package artifact reads packaged contract archives.
//
// An archive is a zip file named after the module it carries (Guess.car holds
// module "Guess"). Every entry whose extension is registered as a unit kind is
// a compiled unit; its qualified name is the entry path without the extension,
// with path separators turned into dots (dapp/guess/Guess.wasm becomes
// dapp.guess.Guess). An optional module.hcl at the archive root is parsed as
// the module manifest. Everything else is ignored.
//
// Scanning is side-effect free beyond I/O and safe to run in parallel across
// distinct archives.
package artifact
