package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Memory is an in-process Gateway over a fixed set of accounts. It backs
// offline snapshot runs and tests.
type Memory struct {
	mu       sync.RWMutex
	order    []string
	accounts map[string]Account
	fetches  map[string]int
	failing  map[string]error
}

var _ Gateway = &Memory{}

// NewMemory returns a gateway serving accounts, in the given order.
func NewMemory(accounts ...Account) *Memory {
	m := &Memory{
		accounts: make(map[string]Account),
		fetches:  make(map[string]int),
		failing:  make(map[string]error),
	}
	for _, a := range accounts {
		m.Put(a)
	}
	return m
}

// LoadSnapshot reads a JSON array of accounts from path.
func LoadSnapshot(path string) (*Memory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var accounts []Account
	if err := json.Unmarshal(b, &accounts); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return NewMemory(accounts...), nil
}

// Put inserts or replaces an account, keeping first-insert order.
func (m *Memory) Put(a Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; !ok {
		m.order = append(m.order, a.ID)
	}
	m.accounts[a.ID] = a
}

// Fail makes Account(id) return err until cleared with Fail(id, nil).
func (m *Memory) Fail(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failing, id)
		return
	}
	m.failing[id] = err
}

// Fetches reports how many times Account(id) was called.
func (m *Memory) Fetches(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fetches[id]
}

func (m *Memory) TokenHolders(ctx context.Context, asset string) ([]Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code, issuer, ok := strings.Cut(asset, ":")
	if !ok {
		return nil, fmt.Errorf("asset %q is not CODE:ISSUER", asset)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Account
	for _, id := range m.order {
		a := m.accounts[id]
		for _, b := range a.Balances {
			if b.Code == code && b.Issuer == issuer {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) Account(ctx context.Context, id string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[id]++
	if err, ok := m.failing[id]; ok {
		return Account{}, err
	}
	a, ok := m.accounts[id]
	if !ok {
		return Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return a, nil
}
