package delegation

import "council-delegation/internal/ledger"

// Verifier supplies the membership/verification flag of an account.
type Verifier interface {
	Verified(a ledger.Account) bool
}

// AllVerified treats every account as verified.
type AllVerified struct{}

func (AllVerified) Verified(ledger.Account) bool { return true }

// AccountSet verifies a fixed list of accounts.
type AccountSet map[string]struct{}

// NewAccountSet builds an AccountSet from ids.
func NewAccountSet(ids ...string) AccountSet {
	s := make(AccountSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s AccountSet) Verified(a ledger.Account) bool {
	_, ok := s[a.ID]
	return ok
}

// AssetHolder verifies accounts holding a positive balance of an asset.
type AssetHolder struct {
	Code   string
	Issuer string
}

func (h AssetHolder) Verified(a ledger.Account) bool {
	return a.BalanceOf(h.Code, h.Issuer).IsPositive()
}

// AnyOf verifies an account if any of its verifiers does. Empty means all.
type AnyOf []Verifier

func (v AnyOf) Verified(a ledger.Account) bool {
	if len(v) == 0 {
		return true
	}
	for _, x := range v {
		if x.Verified(a) {
			return true
		}
	}
	return false
}
