// Package ledger provides read access to account state: token holder listings
// and single account lookups.
package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by Gateway.Account when the ledger has no such account.
var ErrNotFound = errors.New("account not found")

// Gateway is the ledger state provider consumed by the resolver and planner.
type Gateway interface {
	// TokenHolders returns every account holding the asset (CODE:ISSUER),
	// following pagination until exhausted.
	TokenHolders(ctx context.Context, asset string) ([]Account, error)
	// Account fetches a single account. Missing accounts yield ErrNotFound.
	Account(ctx context.Context, id string) (Account, error)
}

// Balance is one non-native trustline balance.
type Balance struct {
	Code    string `json:"asset_code"`
	Issuer  string `json:"asset_issuer"`
	Balance string `json:"balance"` // decimal string, e.g. "12.5000000"
}

// Signer is an additional signer key and its weight.
type Signer struct {
	Key    string `json:"key"`
	Weight int32  `json:"weight"`
}

// Thresholds are the operation thresholds of an account.
type Thresholds struct {
	Low  uint8 `json:"low_threshold"`
	Med  uint8 `json:"med_threshold"`
	High uint8 `json:"high_threshold"`
}

// Account is a snapshot of one ledger account. Data values are base64 encoded,
// as served by Horizon. Signers exclude the master key, whose weight is kept
// separately in MasterWeight.
type Account struct {
	ID           string            `json:"id"`
	Data         map[string]string `json:"data,omitempty"`
	Balances     []Balance         `json:"balances,omitempty"`
	Signers      []Signer          `json:"signers,omitempty"`
	Thresholds   Thresholds        `json:"thresholds"`
	MasterWeight int32             `json:"master_weight"`
}

// BalanceOf returns the decimal balance of code:issuer, zero if the account
// has no trustline for it.
func (a Account) BalanceOf(code, issuer string) decimal.Decimal {
	for _, b := range a.Balances {
		if b.Code != code || b.Issuer != issuer {
			continue
		}
		d, err := decimal.NewFromString(b.Balance)
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

// TokenAmount returns the balance of code:issuer truncated to whole units.
// Fractional precision is discarded, never rounded.
func (a Account) TokenAmount(code, issuer string) uint64 {
	d := a.BalanceOf(code, issuer)
	if d.Sign() <= 0 {
		return 0
	}
	return uint64(d.IntPart())
}
