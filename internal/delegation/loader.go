package delegation

import (
	"context"
	"fmt"
	"slices"

	"council-delegation/internal/ledger"
	"council-delegation/internal/logger"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel single-account fetches.
const DefaultConcurrency = 8

// LoadOptions selects the voting token, the data entry holding the
// delegation pointer and how accounts are verified.
type LoadOptions struct {
	TokenCode   string
	TokenIssuer string
	DelegateKey string
	ReadyValue  string
	Verifier    Verifier
	Concurrency int
	Log         *logger.Logger
}

func (o LoadOptions) asset() string {
	return o.TokenCode + ":" + o.TokenIssuer
}

type fetchResult struct {
	account ledger.Account
	err     error
}

// Load seeds a registry from the fully drained holder listing and then
// fetches every delegation target not already known, level by level, until
// no unknown targets remain. A failing holder listing is fatal. A failing
// target fetch only marks that target unresolvable. Cancellation aborts the
// load with no registry.
func Load(ctx context.Context, gw ledger.Gateway, opts LoadOptions) (*Registry, error) {
	if opts.Verifier == nil {
		opts.Verifier = AllVerified{}
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}

	holders, err := gw.TokenHolders(ctx, opts.asset())
	if err != nil {
		return nil, fmt.Errorf("list token holders: %w", err)
	}

	reg := NewRegistry()
	for _, a := range holders {
		if !reg.Exists(a.ID) {
			addAccount(reg, a, opts)
		}
	}
	opts.Log.Debugf("loaded %d token holders of %s", reg.Len(), opts.asset())

	frontier := unknownTargets(reg, reg.All())
	for level := 1; len(frontier) > 0; level++ {
		results, err := fetchAll(ctx, gw, frontier, opts.Concurrency)
		if err != nil {
			return nil, err
		}

		var added []*AccountRecord
		for i, id := range frontier {
			res := results[i]
			if res.err != nil {
				reg.MarkUnresolvable(id, res.err)
				opts.Log.Debugf("target %s unresolvable: %v", id, res.err)
				continue
			}
			added = append(added, addAccount(reg, res.account, opts))
		}
		opts.Log.Debugf("target level %d: fetched %d, resolved %d", level, len(frontier), len(added))
		frontier = unknownTargets(reg, added)
	}
	return reg, nil
}

func addAccount(reg *Registry, a ledger.Account, opts LoadOptions) *AccountRecord {
	rec := reg.GetOrCreate(a.ID)
	rec.OwnAmount = a.TokenAmount(opts.TokenCode, opts.TokenIssuer)
	rec.Pointer = ParsePointer(a.ID, a.Data[opts.DelegateKey], opts.ReadyValue)
	rec.Ready = rec.Pointer.Kind == PointerReady
	rec.Verified = opts.Verifier.Verified(a)
	return rec
}

// unknownTargets lists, sorted and deduplicated, the targets of recs that
// are neither registered nor known to be unresolvable.
func unknownTargets(reg *Registry, recs []*AccountRecord) []string {
	var out []string
	for _, rec := range recs {
		if rec.Pointer.Kind != PointerTarget {
			continue
		}
		t := rec.Pointer.Target
		if reg.Exists(t) || reg.Unresolvable(t) != nil {
			continue
		}
		out = append(out, t)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// fetchAll fetches ids concurrently. Per-account failures are returned in
// the results; only cancellation of ctx fails the call.
func fetchAll(ctx context.Context, gw ledger.Gateway, ids []string, limit int) ([]fetchResult, error) {
	results := make([]fetchResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, id := range ids {
		g.Go(func() error {
			a, err := gw.Account(gctx, id)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			results[i] = fetchResult{account: a, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
