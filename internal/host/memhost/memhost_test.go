package memhost

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/contractvm/internal/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ host.StateDB    = (*StateDB)(nil)
	_ host.LocalDB    = (*LocalDB)(nil)
	_ host.Blockchain = (*Chain)(nil)
	_ host.Account    = (*Accounts)(nil)
)

func TestLocalDB_SetAndGet(t *testing.T) {
	ctx := context.Background()
	db := NewLocalDB()

	_, found, err := db.Get(ctx, []byte("LastRound"))
	require.NoError(t, err)
	assert.False(t, found)

	value := []byte("1")
	ok, err := db.Set(ctx, []byte("LastRound"), value)
	require.NoError(t, err)
	assert.True(t, ok)

	// Mutating the caller's slice must not change the stored value.
	value[0] = '9'
	got, found, err := db.Get(ctx, []byte("LastRound"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("1"), got)
	assert.Equal(t, []string{"LastRound"}, db.Keys())
}

func TestStateDB_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	db := NewStateDB()
	const writers = 100

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			key := []byte(fmt.Sprintf("round-%03d", i))
			if err := db.Set(ctx, key, []byte(fmt.Sprint(i))); err != nil {
				t.Errorf("set %s: %v", key, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, db.Keys(), writers)
	got, found, err := db.Get(ctx, []byte("round-042"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("42"), got)
}

func TestChain_Advance(t *testing.T) {
	c := NewChain(10, "alice")
	hash := c.TxHash()

	c.Advance("bob")
	assert.Equal(t, uint64(11), c.CurrentHeight())
	assert.Equal(t, "bob", c.From())
	assert.NotEqual(t, hash, c.TxHash())
	assert.NotEmpty(t, c.BlockHash())
	assert.Len(t, c.Random(), 16)
	assert.NotEqual(t, c.Random(), c.Random())
}

func TestAccounts(t *testing.T) {
	a := NewAccounts(map[string]int64{"alice": 300})

	assert.True(t, a.Transfer("alice", "admin", 200))
	assert.False(t, a.Transfer("alice", "admin", 200), "insufficient balance")
	assert.False(t, a.Transfer("alice", "admin", -1))

	assert.True(t, a.Freeze("admin", 150))
	assert.False(t, a.Freeze("admin", 100))
	active, frozen := a.Balance("admin")
	assert.Equal(t, int64(50), active)
	assert.Equal(t, int64(150), frozen)

	assert.True(t, a.Activate("admin", 150))
	assert.False(t, a.Activate("admin", 1))
	active, frozen = a.Balance("admin")
	assert.Equal(t, int64(200), active)
	assert.Equal(t, int64(0), frozen)

	active, frozen = a.Balance("nobody")
	assert.Zero(t, active)
	assert.Zero(t, frozen)
}
