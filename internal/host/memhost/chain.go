package memhost

import (
	"sync"

	"github.com/google/uuid"
)

// Chain is an in-memory host.Blockchain whose context is set by the caller.
type Chain struct {
	mu        sync.RWMutex
	height    uint64
	from      string
	blockHash string
	txHash    string
}

// NewChain creates a chain positioned at height, with from as the sender of
// the current transaction.
func NewChain(height uint64, from string) *Chain {
	c := &Chain{height: height, from: from}
	c.blockHash = uuid.NewString()
	c.txHash = uuid.NewString()
	return c
}

// Advance moves to the next block and starts a new transaction from sender.
func (c *Chain) Advance(from string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height++
	c.from = from
	c.blockHash = uuid.NewString()
	c.txHash = uuid.NewString()
}

func (c *Chain) CurrentHeight() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height
}

func (c *Chain) From() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.from
}

func (c *Chain) BlockHash() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blockHash
}

func (c *Chain) TxHash() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.txHash
}

// Random returns 16 fresh random bytes.
func (c *Chain) Random() []byte {
	id := uuid.New()
	return id[:]
}
