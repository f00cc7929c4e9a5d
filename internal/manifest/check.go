// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package manifest

import (
	"fmt"

	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// CheckArgs validates an argument vector against the declared params.
// Extra arguments are only accepted when the operation is variadic.
func (o *Operation) CheckArgs(args []string) error {
	if len(args) < len(o.Params) || (!o.Variadic && len(args) > len(o.Params)) {
		return fmt.Errorf("%w: %s expects %s, got %d", contract.ErrInvalidArguments, o.Name, o.arity(), len(args))
	}

	for i, p := range o.Params {
		if _, err := convert.Convert(cty.StringVal(args[i]), p.Type); err != nil {
			return fmt.Errorf("%w: %s param %q: cannot use %q as %s", contract.ErrInvalidArguments, o.Name, p.Name, args[i], p.Type.FriendlyName())
		}
	}
	return nil
}

func (o *Operation) arity() string {
	if o.Variadic {
		return fmt.Sprintf("at least %d argument(s)", len(o.Params))
	}
	return fmt.Sprintf("exactly %d argument(s)", len(o.Params))
}
