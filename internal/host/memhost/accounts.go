package memhost

import "sync"

type balance struct {
	active int64
	frozen int64
}

// Accounts is an in-memory host.Account ledger.
type Accounts struct {
	mu       sync.Mutex
	balances map[string]*balance
}

// NewAccounts creates a ledger with the given active balances.
func NewAccounts(active map[string]int64) *Accounts {
	a := &Accounts{balances: make(map[string]*balance, len(active))}
	for addr, amount := range active {
		a.balances[addr] = &balance{active: amount}
	}
	return a
}

func (a *Accounts) get(addr string) *balance {
	b, ok := a.balances[addr]
	if !ok {
		b = &balance{}
		a.balances[addr] = b
	}
	return b
}

// Transfer moves amount of active balance from one address to another.
func (a *Accounts) Transfer(from, to string, amount int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if amount < 0 {
		return false
	}
	src := a.get(from)
	if src.active < amount {
		return false
	}
	src.active -= amount
	a.get(to).active += amount
	return true
}

// Freeze moves amount from the active to the frozen balance of addr.
func (a *Accounts) Freeze(addr string, amount int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.get(addr)
	if amount < 0 || b.active < amount {
		return false
	}
	b.active -= amount
	b.frozen += amount
	return true
}

// Activate moves amount from the frozen back to the active balance of addr.
func (a *Accounts) Activate(addr string, amount int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.get(addr)
	if amount < 0 || b.frozen < amount {
		return false
	}
	b.frozen -= amount
	b.active += amount
	return true
}

// Balance returns the active and frozen balance of addr.
func (a *Accounts) Balance(addr string) (active, frozen int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if b, ok := a.balances[addr]; ok {
		return b.active, b.frozen
	}
	return 0, 0
}
