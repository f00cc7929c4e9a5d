// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package manifest parses the optional `module.hcl` file shipped at the root
// of a contract archive.
//
// A manifest lets a contract declare its entry unit explicitly instead of
// relying on the naming convention (the unit whose qualified name ends with
// the module name), and describe the arguments each public operation takes:
//
//	module "Guess" {
//	  entry       = "dapp.guess.Guess"
//	  description = "Number guessing game."
//
//	  operation "tx" {
//	    param "lucky" { type = number }
//	    param "tickets" { type = number }
//	  }
//
//	  operation "query" {
//	    variadic = true
//	  }
//	}
//
// Arguments always travel as strings. Declared types are checked by converting
// each argument into the declared cty type before the operation is invoked, so
// a malformed call fails fast instead of inside the contract.
package manifest
