// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/zclconf/go-cty/cty"
)

// FileName is the name of the manifest entry at the root of an archive.
const FileName = "module.hcl"

// Manifest is the parsed declaration of a contract.
type Manifest struct {
	Module      string
	Entry       string
	Description string
	Operations  map[contract.Op]*Operation
}

// Operation declares the arguments accepted by one public operation.
type Operation struct {
	Name     contract.Op
	Params   []Param
	Variadic bool
}

// Param is a single positional argument.
type Param struct {
	Name        string
	Type        cty.Type
	Description string
}

// Operation returns the declaration for op, if the manifest has one.
func (m *Manifest) Operation(op contract.Op) (*Operation, bool) {
	if m == nil {
		return nil, false
	}
	o, ok := m.Operations[op]
	return o, ok
}

type rootSchema struct {
	Modules []*hclModule `hcl:"module,block"`
}

type hclModule struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

var moduleBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "entry"},
		{Name: "description"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "operation", LabelNames: []string{"name"}},
	},
}

var operationBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "variadic"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "param", LabelNames: []string{"name"}},
	},
}

var paramBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
		{Name: "description"},
	},
}

// Parse decodes manifest source. The filename is only used in diagnostics.
func Parse(src []byte, filename string) (*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}

	m, diags := decode(file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid manifest %s: %w", filename, diags)
	}
	return m, nil
}

func decode(file *hcl.File) (*Manifest, hcl.Diagnostics) {
	root := &rootSchema{}
	diags := gohcl.DecodeBody(file.Body, nil, root)
	if diags.HasErrors() {
		return nil, diags
	}

	if len(root.Modules) != 1 {
		rng := file.Body.MissingItemRange()
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Expected exactly one module block",
			Detail:   fmt.Sprintf("A manifest declares a single module, found %d.", len(root.Modules)),
			Subject:  &rng,
		})
		return nil, diags
	}

	block := root.Modules[0]
	content, contentDiags := block.Body.Content(moduleBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, diags
	}

	m := &Manifest{
		Module:     block.Name,
		Operations: make(map[contract.Op]*Operation),
	}
	if attr, ok := content.Attributes["entry"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &m.Entry)...)
	}
	if attr, ok := content.Attributes["description"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &m.Description)...)
	}

	for _, opBlock := range content.Blocks.OfType("operation") {
		op, opDiags := decodeOperation(opBlock)
		diags = append(diags, opDiags...)
		if op == nil {
			continue
		}
		if _, exists := m.Operations[op.Name]; exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate operation definition",
				Detail:   fmt.Sprintf("An operation named '%s' has already been defined.", op.Name),
				Subject:  &opBlock.DefRange,
			})
			continue
		}
		m.Operations[op.Name] = op
	}

	return m, diags
}

func decodeOperation(block *hcl.Block) (*Operation, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	name, err := contract.ParseOp(block.Labels[0])
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsupported operation",
			Detail:   err.Error(),
			Subject:  &block.LabelRanges[0],
		})
		return nil, diags
	}

	content, contentDiags := block.Body.Content(operationBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, diags
	}

	op := &Operation{Name: name}
	if attr, ok := content.Attributes["variadic"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &op.Variadic)...)
	}

	seen := make(map[string]bool)
	for _, pb := range content.Blocks.OfType("param") {
		paramName := pb.Labels[0]
		if seen[paramName] {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate param definition",
				Detail:   fmt.Sprintf("A param named '%s' has already been defined for operation '%s'.", paramName, name),
				Subject:  &pb.DefRange,
			})
			continue
		}
		seen[paramName] = true

		pc, pcDiags := pb.Body.Content(paramBodySchema)
		diags = append(diags, pcDiags...)
		if pcDiags.HasErrors() {
			continue
		}

		typ, typeDiags := typeFromExpr(pc.Attributes["type"].Expr)
		diags = append(diags, typeDiags...)
		if typeDiags.HasErrors() {
			continue
		}

		p := Param{Name: paramName, Type: typ}
		if attr, ok := pc.Attributes["description"]; ok {
			diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &p.Description)...)
		}
		op.Params = append(op.Params, p)
	}

	return op, diags
}
