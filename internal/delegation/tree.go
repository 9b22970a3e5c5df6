package delegation

import (
	"cmp"
	"slices"
	"strings"
)

// Node is one account in a delegation tree with its aggregated power.
type Node struct {
	ID                   string `json:"id"`
	OwnTokenAmount       uint64 `json:"own_token_amount"`
	DelegatedTokenAmount uint64 `json:"delegated_token_amount"`
	Delegated            []Node `json:"delegated"`
}

// Total is the voting power carried by the node: own plus delegated.
func (n Node) Total() uint64 {
	return n.OwnTokenAmount + n.DelegatedTokenAmount
}

// Forest is the aggregated result of a resolution run.
type Forest struct {
	Roots      []Node   `json:"trees"`
	Broken     []Node   `json:"broken"`
	Incomplete []string `json:"incomplete"`
}

// Aggregate builds a tree for every root and a subtree for every broken
// account. Broken accounts are never nested inside another tree; their
// non-broken delegators are aggregated under them as usual.
func Aggregate(reg *Registry) Forest {
	f := Forest{
		Roots:      []Node{},
		Broken:     []Node{},
		Incomplete: []string{},
	}
	for _, rec := range reg.All() {
		switch {
		case rec.Broken:
			f.Broken = append(f.Broken, build(reg, rec))
		case rec.IsRoot():
			f.Roots = append(f.Roots, build(reg, rec))
		}
		if rec.Incomplete {
			f.Incomplete = append(f.Incomplete, rec.ID)
		}
	}
	sortNodes(f.Roots)
	sortNodes(f.Broken)
	slices.Sort(f.Incomplete)
	return f
}

// build aggregates rec post-order. Children are fully built before they are
// attached, so no node is shared between trees.
func build(reg *Registry, rec *AccountRecord) Node {
	n := Node{
		ID:             rec.ID,
		OwnTokenAmount: rec.OwnAmount,
		Delegated:      make([]Node, 0, len(rec.DelegatedFrom)),
	}
	for _, id := range rec.DelegatedFrom {
		child, ok := reg.Get(id)
		if !ok || child.Broken {
			continue
		}
		c := build(reg, child)
		n.DelegatedTokenAmount += c.Total()
		n.Delegated = append(n.Delegated, c)
	}
	sortNodes(n.Delegated)
	return n
}

// sortNodes orders by descending total power, then ascending id.
func sortNodes(nodes []Node) {
	slices.SortFunc(nodes, func(a, b Node) int {
		if c := cmp.Compare(b.Total(), a.Total()); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Walk visits n and its descendants depth-first, pre-order.
func (n Node) Walk(visit func(node Node, depth int)) {
	n.walk(visit, 0)
}

func (n Node) walk(visit func(Node, int), depth int) {
	visit(n, depth)
	for _, c := range n.Delegated {
		c.walk(visit, depth+1)
	}
}
