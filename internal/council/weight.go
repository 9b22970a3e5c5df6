// Package council turns candidate voting power into signer weights, a
// quorum threshold and signer change plans.
package council

import (
	"cmp"
	"slices"
	"strings"
)

// MaxWeight is the largest signer weight or threshold the ledger accepts.
const MaxWeight = 255

// DefaultSize is the number of council seats.
const DefaultSize = 20

// MaxSize is the largest council whose strict majority fits in a threshold
// byte: a seat weighs at most 20 (the digit count of the largest uint64),
// and 25*20/2+1 stays below MaxWeight.
const MaxSize = 25

// Weight maps aggregated power p to floor(log10(max(p, 2) - 1) + 1), capped
// at MaxWeight. The value is the decimal digit count of max(p,2)-1, which is
// computed on integers to stay exact at powers of ten.
func Weight(p uint64) uint8 {
	n := max(p, 2) - 1
	digits := 0
	for ; n > 0; n /= 10 {
		digits++
	}
	return uint8(min(digits, MaxWeight))
}

// Member is one elected seat.
type Member struct {
	ID     string `json:"id"`
	Power  uint64 `json:"power"`
	Weight uint8  `json:"weight"`
}

// Council is the elected signer set and the quorum it needs.
type Council struct {
	Members   []Member `json:"members"`
	Threshold uint8    `json:"threshold"`
}

// Rank orders candidates by descending power, then ascending id, and keeps
// the first size of them.
func Rank(candidates map[string]uint64, size int) []Member {
	members := make([]Member, 0, len(candidates))
	for id, p := range candidates {
		members = append(members, Member{ID: id, Power: p, Weight: Weight(p)})
	}
	slices.SortFunc(members, func(a, b Member) int {
		if c := cmp.Compare(b.Power, a.Power); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if size >= 0 && len(members) > size {
		members = members[:size]
	}
	return members
}

// Threshold is a strict majority of the total weight: floor(sum/2)+1,
// capped at MaxWeight. The cap is never reached for councils of at most
// MaxSize seats.
func Threshold(members []Member) uint8 {
	sum := 0
	for _, m := range members {
		sum += int(m.Weight)
	}
	return uint8(min(sum/2+1, MaxWeight))
}

// Elect ranks the candidates and derives the quorum for the kept seats.
func Elect(candidates map[string]uint64, size int) Council {
	members := Rank(candidates, size)
	return Council{Members: members, Threshold: Threshold(members)}
}

// Weights returns the desired signer set of the council.
func (c Council) Weights() map[string]uint8 {
	out := make(map[string]uint8, len(c.Members))
	for _, m := range c.Members {
		out[m.ID] = m.Weight
	}
	return out
}

// TotalWeight sums the member weights.
func (c Council) TotalWeight() int {
	sum := 0
	for _, m := range c.Members {
		sum += int(m.Weight)
	}
	return sum
}
