package ledger

import (
	"context"
	"testing"

	"github.com/specialistvlad/contractvm/internal/host"
	"github.com/specialistvlad/contractvm/internal/host/memhost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfer(t *testing.T) {
	accounts := memhost.NewAccounts(map[string]int64{"alice": 100})
	ctx := host.WithEnv(context.Background(), &host.Env{
		Chain:    memhost.NewChain(7, "alice"),
		Accounts: accounts,
	})

	_, err := Transfer(ctx, []string{"bob", "40"})
	require.NoError(t, err)

	active, _ := accounts.Balance("bob")
	assert.Equal(t, int64(40), active)
	active, _ = accounts.Balance("alice")
	assert.Equal(t, int64(60), active)

	_, err = Transfer(ctx, []string{"bob", "1000"})
	assert.ErrorContains(t, err, "rejected")
}

func TestTransfer_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing amount", []string{"bob"}, "expects recipient and amount"},
		{"not a number", []string{"bob", "ten"}, "invalid amount"},
		{"negative", []string{"bob", "-5"}, "invalid amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transfer(context.Background(), tt.args)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
