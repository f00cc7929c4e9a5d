package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/materialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unitHandle struct {
	unit contract.Unit
}

func (h *unitHandle) Name() string { return h.unit.Name }

func (h *unitHandle) Operation(contract.Op) (contract.Operation, bool) { return nil, false }

// mapSource keeps private units per module plus a common layer, like the registry.
type mapSource struct {
	private map[string]map[string]contract.Unit
	common  map[string]contract.Unit
}

func (s mapSource) ResolveIn(module, name string) (contract.Unit, bool) {
	if u, ok := s.private[module][name]; ok {
		return u, true
	}
	u, ok := s.common[name]
	return u, ok
}

type baseFunc func(ctx context.Context, name string) (contract.Handle, bool)

func (f baseFunc) Lookup(ctx context.Context, name string) (contract.Handle, bool) { return f(ctx, name) }

func countingMaterializer(calls *int) materialize.Materializer {
	return materialize.Func(func(_ context.Context, unit contract.Unit) (contract.Handle, error) {
		*calls++
		return &unitHandle{unit: unit}, nil
	})
}

func testSource() mapSource {
	return mapSource{
		private: map[string]map[string]contract.Unit{
			"alpha": {
				"alpha":        {Name: "alpha", Code: []byte("alpha entry")},
				"shared.Codec": {Name: "shared.Codec", Code: []byte("alpha codec")},
			},
			"beta": {
				"beta.Secret": {Name: "beta.Secret", Code: []byte("beta secret")},
			},
		},
		common: map[string]contract.Unit{
			"shared.Codec": {Name: "shared.Codec", Code: []byte("common codec")},
			"shared.Math":  {Name: "shared.Math", Code: []byte("common math")},
		},
	}
}

func TestMaterialize_LookupOrder(t *testing.T) {
	var calls int
	r := New("alpha", testSource(), nil, countingMaterializer(&calls))
	ctx := context.Background()

	h, err := r.Materialize(ctx, "shared.Codec")
	require.NoError(t, err)
	assert.Equal(t, "alpha codec", string(h.(*unitHandle).unit.Code), "private unit shadows common")

	h, err = r.Materialize(ctx, "shared.Math")
	require.NoError(t, err)
	assert.Equal(t, "common math", string(h.(*unitHandle).unit.Code))

	_, err = r.Materialize(ctx, "beta.Secret")
	require.ErrorIs(t, err, contract.ErrUnitNotFound, "units of other modules are invisible")
	assert.Equal(t, 2, calls)
}

func TestMaterialize_HandleIdentityIsStable(t *testing.T) {
	var calls int
	r := New("alpha", testSource(), nil, countingMaterializer(&calls))
	ctx := context.Background()

	first, err := r.Materialize(ctx, "alpha")
	require.NoError(t, err)
	second, err := r.Materialize(ctx, "alpha")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestMaterialize_BaseTakesPrecedence(t *testing.T) {
	hostHandle := &unitHandle{unit: contract.Unit{Name: "shared.Codec", Code: []byte("host")}}
	base := baseFunc(func(_ context.Context, name string) (contract.Handle, bool) {
		if name == "shared.Codec" {
			return hostHandle, true
		}
		return nil, false
	})

	var calls int
	r := New("alpha", testSource(), base, countingMaterializer(&calls))

	h, err := r.Materialize(context.Background(), "shared.Codec")
	require.NoError(t, err)
	assert.Same(t, hostHandle, h)
	assert.Zero(t, calls)

	_, err = r.Materialize(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestMaterialize_PropagatesMaterializerError(t *testing.T) {
	boom := errors.New("boom")
	mat := materialize.Func(func(context.Context, contract.Unit) (contract.Handle, error) {
		return nil, boom
	})
	r := New("alpha", testSource(), nil, mat)

	_, err := r.Materialize(context.Background(), "alpha")
	require.ErrorIs(t, err, boom)

	// Failures are not cached.
	_, ok := r.cache["alpha"]
	assert.False(t, ok)
	assert.Equal(t, "alpha", r.Module())
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	_, ok = FromContext(WithContext(context.Background(), nil))
	assert.False(t, ok)

	var calls int
	r := New("beta", testSource(), nil, countingMaterializer(&calls))
	ctx := WithContext(context.Background(), r)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, r, got)

	// Code running inside the dispatch shares its resolver and handle cache.
	h, err := got.Materialize(ctx, "beta.Secret")
	require.NoError(t, err)
	again, err := r.Materialize(ctx, "beta.Secret")
	require.NoError(t, err)
	assert.Same(t, h, again)
	assert.Equal(t, 1, calls)
}
