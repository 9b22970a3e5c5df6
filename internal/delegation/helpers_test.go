package delegation_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"council-delegation/internal/delegation"
	"council-delegation/internal/ledger"
	"council-delegation/internal/logger"

	"github.com/stellar/go/strkey"
	"github.com/stretchr/testify/require"
)

const (
	tokenCode   = "VOICE"
	delegateKey = "mtla_c_delegate"
	readyValue  = "ready"
)

var tokenIssuer = accountID(250)

// accountID derives a valid, deterministic account id from n.
func accountID(n byte) string {
	var raw [32]byte
	raw[0] = 0x42
	raw[31] = n
	return strkey.MustEncode(strkey.VersionByteAccountID, raw[:])
}

func encode(v string) string {
	return base64.StdEncoding.EncodeToString([]byte(v))
}

// holder builds a token holder delegating to pointer ("" for none).
func holder(id string, amount string, pointer string) ledger.Account {
	a := ledger.Account{
		ID:       id,
		Balances: []ledger.Balance{{Code: tokenCode, Issuer: tokenIssuer, Balance: amount}},
	}
	if pointer != "" {
		a.Data = map[string]string{delegateKey: encode(pointer)}
	}
	return a
}

// outsider builds an account without the token.
func outsider(id string, pointer string) ledger.Account {
	a := ledger.Account{ID: id}
	if pointer != "" {
		a.Data = map[string]string{delegateKey: encode(pointer)}
	}
	return a
}

func loadOptions() delegation.LoadOptions {
	return delegation.LoadOptions{
		TokenCode:   tokenCode,
		TokenIssuer: tokenIssuer,
		DelegateKey: delegateKey,
		ReadyValue:  readyValue,
		Concurrency: 4,
		Log:         logger.Discard(),
	}
}

func resolve(t *testing.T, gw ledger.Gateway) (*delegation.Registry, delegation.Forest) {
	t.Helper()
	reg, err := delegation.Load(context.Background(), gw, loadOptions())
	require.NoError(t, err)
	delegation.Resolve(reg, logger.Discard())
	return reg, delegation.Aggregate(reg)
}

func ids(nodes []delegation.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func find(nodes []delegation.Node, id string) (delegation.Node, bool) {
	for _, n := range nodes {
		var found *delegation.Node
		n.Walk(func(node delegation.Node, _ int) {
			if found == nil && node.ID == id {
				found = &node
			}
		})
		if found != nil {
			return *found, true
		}
	}
	return delegation.Node{}, false
}

// checkSums asserts delegated == sum of children totals at every node.
func checkSums(t *testing.T, n delegation.Node) {
	t.Helper()
	var sum uint64
	for _, c := range n.Delegated {
		checkSums(t, c)
		sum += c.Total()
	}
	require.Equal(t, sum, n.DelegatedTokenAmount, fmt.Sprintf("node %s", n.ID))
}

// failingHolders fails the holder listing.
type failingHolders struct {
	*ledger.Memory
	err error
}

func (f failingHolders) TokenHolders(context.Context, string) ([]ledger.Account, error) {
	return nil, f.err
}
