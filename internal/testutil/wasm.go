package testutil

// Value types used in WasmImport and WasmFunc signatures.
const (
	WasmI32 byte = 0x7f
	WasmI64 byte = 0x7e
)

// WasmUnreachable traps as soon as it is executed.
var WasmUnreachable = []byte{0x00}

// WasmImport is one imported function.
type WasmImport struct {
	Module  string
	Name    string
	Params  []byte
	Results []byte
}

// WasmFunc is one function defined by a hand-assembled test module.
type WasmFunc struct {
	// Export is the export name; empty keeps the function private.
	Export  string
	Params  []byte
	Results []byte
	// Body is the raw instruction sequence, without locals or the final `end`.
	Body []byte
}

// WasmData is an active data segment written into memory 0.
type WasmData struct {
	Offset int32
	Bytes  []byte
}

// WasmBinary describes a WebAssembly module small enough to assemble by hand.
// Imported functions take indices 0..len(Imports)-1, defined functions follow.
type WasmBinary struct {
	Imports []WasmImport
	Funcs   []WasmFunc
	// MemoryPages declares and exports a linear memory named "memory" when
	// non-zero.
	MemoryPages uint32
	Data        []WasmData
}

// WasmModule assembles a module exporting the given functions.
func WasmModule(funcs ...WasmFunc) []byte {
	return WasmBinary{Funcs: funcs}.Bytes()
}

// Bytes encodes the module.
func (b WasmBinary) Bytes() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	if len(b.Imports) == 0 && len(b.Funcs) == 0 && b.MemoryPages == 0 {
		return out
	}

	// type section: one signature per import, then one per function.
	var types [][]byte
	for _, im := range b.Imports {
		types = append(types, funcType(im.Params, im.Results))
	}
	for _, f := range b.Funcs {
		types = append(types, funcType(f.Params, f.Results))
	}
	out = appendSection(out, 0x01, vector(types))

	if len(b.Imports) > 0 {
		var imports [][]byte
		for i, im := range b.Imports {
			e := name(im.Module)
			e = append(e, name(im.Name)...)
			e = append(e, 0x00)
			e = append(e, uleb(uint32(i))...)
			imports = append(imports, e)
		}
		out = appendSection(out, 0x02, vector(imports))
	}

	if len(b.Funcs) > 0 {
		var fns [][]byte
		for i := range b.Funcs {
			fns = append(fns, uleb(uint32(len(b.Imports)+i)))
		}
		out = appendSection(out, 0x03, vector(fns))
	}

	if b.MemoryPages > 0 {
		mem := append([]byte{0x00}, uleb(b.MemoryPages)...)
		out = appendSection(out, 0x05, vector([][]byte{mem}))
	}

	var exports [][]byte
	for i, f := range b.Funcs {
		if f.Export == "" {
			continue
		}
		e := name(f.Export)
		e = append(e, 0x00)
		e = append(e, uleb(uint32(len(b.Imports)+i))...)
		exports = append(exports, e)
	}
	if b.MemoryPages > 0 {
		exports = append(exports, append(name("memory"), 0x02, 0x00))
	}
	if len(exports) > 0 {
		out = appendSection(out, 0x07, vector(exports))
	}

	if len(b.Funcs) > 0 {
		var code [][]byte
		for _, f := range b.Funcs {
			body := append([]byte{0x00}, f.Body...)
			body = append(body, 0x0b)
			code = append(code, append(uleb(uint32(len(body))), body...))
		}
		out = appendSection(out, 0x0a, vector(code))
	}

	if len(b.Data) > 0 {
		var segs [][]byte
		for _, d := range b.Data {
			seg := []byte{0x00}
			seg = append(seg, I32Const(d.Offset)...)
			seg = append(seg, 0x0b)
			seg = append(seg, uleb(uint32(len(d.Bytes)))...)
			seg = append(seg, d.Bytes...)
			segs = append(segs, seg)
		}
		out = appendSection(out, 0x0b, vector(segs))
	}
	return out
}

// I32Const pushes v.
func I32Const(v int32) []byte {
	return append([]byte{0x41}, sleb(int64(v))...)
}

// Call calls the function at index fn.
func Call(fn uint32) []byte {
	return append([]byte{0x10}, uleb(fn)...)
}

// Drop discards the top of the stack.
var Drop = []byte{0x1a}

// Instr concatenates instructions into a function body.
func Instr(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func funcType(params, results []byte) []byte {
	t := []byte{0x60}
	t = append(t, uleb(uint32(len(params)))...)
	t = append(t, params...)
	t = append(t, uleb(uint32(len(results)))...)
	return append(t, results...)
}

func name(s string) []byte {
	return append(uleb(uint32(len(s))), s...)
}

func vector(items [][]byte) []byte {
	out := uleb(uint32(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func appendSection(out []byte, id byte, payload []byte) []byte {
	out = append(out, id)
	out = append(out, uleb(uint32(len(payload)))...)
	return append(out, payload...)
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
