package wasm

import (
	"context"

	"github.com/specialistvlad/contractvm/internal/ctxlog"
	"github.com/specialistvlad/contractvm/internal/host"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// HostModule is the import namespace of the host functions.
const HostModule = "env"

// Return codes shared by the host functions.
const (
	codeAbsent       int32 = -1
	codeFailure      int32 = -2
	codeUnavailable  int32 = -3
	codeMemoryAccess int32 = -4
)

// frame is the per-call state host functions act on.
type frame struct {
	args    []string
	results []string
	err     error
}

type frameKey struct{}

func withFrame(ctx context.Context, f *frame) context.Context {
	return context.WithValue(ctx, frameKey{}, f)
}

func frameFrom(ctx context.Context) *frame {
	if f, ok := ctx.Value(frameKey{}).(*frame); ok {
		return f
	}
	return &frame{}
}

func read(m api.Module, ptr, length uint32) ([]byte, bool) {
	if m.Memory() == nil {
		return nil, false
	}
	view, ok := m.Memory().Read(ptr, length)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), view...), true
}

// writeValue copies at most capacity bytes of value to ptr and returns the
// full value length, so a guest can retry with a bigger buffer.
func writeValue(m api.Module, ptr, capacity uint32, value []byte) int32 {
	n := uint32(len(value))
	if n > capacity {
		n = capacity
	}
	if m.Memory() == nil || !m.Memory().Write(ptr, value[:n]) {
		return codeMemoryAccess
	}
	return int32(len(value))
}

func instantiateHostModule(ctx context.Context, rt wazero.Runtime) error {
	_, err := rt.NewHostModuleBuilder(HostModule).
		NewFunctionBuilder().WithFunc(argCount).Export("arg_count").
		NewFunctionBuilder().WithFunc(argLen).Export("arg_len").
		NewFunctionBuilder().WithFunc(argRead).Export("arg_read").
		NewFunctionBuilder().WithFunc(retPush).Export("ret_push").
		NewFunctionBuilder().WithFunc(stateGet).Export("state_get").
		NewFunctionBuilder().WithFunc(stateSet).Export("state_set").
		NewFunctionBuilder().WithFunc(localGet).Export("local_get").
		NewFunctionBuilder().WithFunc(localSet).Export("local_set").
		NewFunctionBuilder().WithFunc(height).Export("height").
		NewFunctionBuilder().WithFunc(logMessage).Export("log").
		Instantiate(ctx)
	return err
}

func argCount(ctx context.Context) uint32 {
	return uint32(len(frameFrom(ctx).args))
}

func argLen(ctx context.Context, i uint32) int32 {
	args := frameFrom(ctx).args
	if int(i) >= len(args) {
		return codeAbsent
	}
	return int32(len(args[i]))
}

func argRead(ctx context.Context, m api.Module, i, ptr uint32) int32 {
	args := frameFrom(ctx).args
	if int(i) >= len(args) {
		return codeAbsent
	}
	if m.Memory() == nil || !m.Memory().Write(ptr, []byte(args[i])) {
		return codeMemoryAccess
	}
	return int32(len(args[i]))
}

func retPush(ctx context.Context, m api.Module, ptr, length uint32) int32 {
	b, ok := read(m, ptr, length)
	if !ok {
		return codeMemoryAccess
	}
	f := frameFrom(ctx)
	f.results = append(f.results, string(b))
	return 0
}

func stateGet(ctx context.Context, m api.Module, kptr, klen, vptr, vcap uint32) int32 {
	db := host.FromContext(ctx).State
	if db == nil {
		return codeUnavailable
	}
	key, ok := read(m, kptr, klen)
	if !ok {
		return codeMemoryAccess
	}
	value, found, err := db.Get(ctx, key)
	if err != nil {
		frameFrom(ctx).err = err
		return codeFailure
	}
	if !found {
		return codeAbsent
	}
	return writeValue(m, vptr, vcap, value)
}

func stateSet(ctx context.Context, m api.Module, kptr, klen, vptr, vlen uint32) int32 {
	db := host.FromContext(ctx).State
	if db == nil {
		return codeUnavailable
	}
	key, ok := read(m, kptr, klen)
	if !ok {
		return codeMemoryAccess
	}
	value, ok := read(m, vptr, vlen)
	if !ok {
		return codeMemoryAccess
	}
	if err := db.Set(ctx, key, value); err != nil {
		frameFrom(ctx).err = err
		return codeFailure
	}
	return 0
}

func localGet(ctx context.Context, m api.Module, kptr, klen, vptr, vcap uint32) int32 {
	db := host.FromContext(ctx).Local
	if db == nil {
		return codeUnavailable
	}
	key, ok := read(m, kptr, klen)
	if !ok {
		return codeMemoryAccess
	}
	value, found, err := db.Get(ctx, key)
	if err != nil {
		frameFrom(ctx).err = err
		return codeFailure
	}
	if !found {
		return codeAbsent
	}
	return writeValue(m, vptr, vcap, value)
}

func localSet(ctx context.Context, m api.Module, kptr, klen, vptr, vlen uint32) int32 {
	db := host.FromContext(ctx).Local
	if db == nil {
		return codeUnavailable
	}
	key, ok := read(m, kptr, klen)
	if !ok {
		return codeMemoryAccess
	}
	value, ok := read(m, vptr, vlen)
	if !ok {
		return codeMemoryAccess
	}
	stored, err := db.Set(ctx, key, value)
	if err != nil {
		frameFrom(ctx).err = err
		return codeFailure
	}
	if !stored {
		return 0
	}
	return 1
}

func height(ctx context.Context) uint64 {
	chain := host.FromContext(ctx).Chain
	if chain == nil {
		return 0
	}
	return chain.CurrentHeight()
}

func logMessage(ctx context.Context, m api.Module, ptr, length uint32) {
	if b, ok := read(m, ptr, length); ok {
		ctxlog.FromContext(ctx).Info("Contract log.", "message", string(b))
	}
}
