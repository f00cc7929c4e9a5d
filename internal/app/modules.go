package app

import (
	"github.com/specialistvlad/contractvm/internal/materialize/native"
	"github.com/specialistvlad/contractvm/modules/chaininfo"
	"github.com/specialistvlad/contractvm/modules/greeter"
	"github.com/specialistvlad/contractvm/modules/kvstore"
	"github.com/specialistvlad/contractvm/modules/ledger"
)

// coreModules is the definitive list of all native contracts that are
// compiled into the contractvm binary.
var coreModules = []native.Module{
	&chaininfo.Module{},
	&greeter.Module{},
	&kvstore.Module{},
	&ledger.Module{},
}
