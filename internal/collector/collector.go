// Package collector orchestrates council runs: load, resolve, elect and plan.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"council-delegation/internal/config"
	"council-delegation/internal/council"
	"council-delegation/internal/delegation"
	"council-delegation/internal/ledger"
	"council-delegation/internal/logger"

	"github.com/robfig/cron/v3"
)

// Result is everything one run computes. It is either complete or absent.
type Result struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Asset       string            `json:"asset"`
	Accounts    int               `json:"accounts"`
	Trees       []delegation.Node `json:"trees"`
	Broken      []delegation.Node `json:"broken"`
	Incomplete  []string          `json:"incomplete"`
	Candidates  map[string]uint64 `json:"candidates"`
	Council     council.Council   `json:"council"`
	Plans       []council.Plan    `json:"plans"`
}

// Collector runs the delegation and council computation against a ledger.
type Collector struct {
	cfg      config.Config
	gw       ledger.Gateway // resolution reads, may be cached
	live     ledger.Gateway // signer reads, never cached
	verifier delegation.Verifier
	log      *logger.Logger
	now      func() time.Time
}

// NewCollector wires a collector. gw serves delegation resolution and may sit
// behind a cache; live serves signer state and should not.
func NewCollector(cfg config.Config, gw, live ledger.Gateway, log *logger.Logger) (*Collector, error) {
	if gw == nil {
		return nil, errors.New("collector: nil ledger gateway")
	}
	if live == nil {
		live = gw
	}
	verifier, err := VerifierFor(cfg)
	if err != nil {
		return nil, err
	}
	return &Collector{
		cfg:      cfg,
		gw:       gw,
		live:     live,
		verifier: verifier,
		log:      log,
		now:      time.Now,
	}, nil
}

// VerifierFor builds the candidate verification policy from configuration.
// With neither VERIFY_ASSET nor VERIFIED_ACCOUNTS set every account counts
// as verified.
func VerifierFor(cfg config.Config) (delegation.Verifier, error) {
	var verifiers delegation.AnyOf
	if cfg.VerifyAsset != "" {
		code, issuer, err := config.SplitAsset(cfg.VerifyAsset)
		if err != nil {
			return nil, err
		}
		verifiers = append(verifiers, delegation.AssetHolder{Code: code, Issuer: issuer})
	}
	if len(cfg.VerifiedAccounts) > 0 {
		verifiers = append(verifiers, delegation.NewAccountSet(cfg.VerifiedAccounts...))
	}
	if len(verifiers) == 0 {
		return delegation.AllVerified{}, nil
	}
	return verifiers, nil
}

// Compute performs one full run against current ledger state.
func (c *Collector) Compute(ctx context.Context) (*Result, error) {
	started := c.now()
	reg, err := delegation.Load(ctx, c.gw, delegation.LoadOptions{
		TokenCode:   c.cfg.TokenCode,
		TokenIssuer: c.cfg.TokenIssuer,
		DelegateKey: c.cfg.DelegateKey,
		ReadyValue:  c.cfg.ReadyValue,
		Verifier:    c.verifier,
		Concurrency: c.cfg.FetchConcurrency,
		Log:         c.log,
	})
	if err != nil {
		return nil, err
	}

	delegation.Resolve(reg, c.log)
	forest := delegation.Aggregate(reg)
	candidates := delegation.Candidates(reg, forest)
	elected := council.Elect(candidates, c.cfg.CouncilSize)

	c.log.Printf("Resolved %d accounts: trees=%d broken=%d incomplete=%d candidates=%d",
		reg.Len(), len(forest.Roots), len(forest.Broken), len(forest.Incomplete), len(candidates))

	plans, err := c.plan(ctx, elected)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.log.Printf("Run finished in %s", c.now().Sub(started).Round(time.Millisecond))
	return &Result{
		GeneratedAt: started,
		Asset:       c.cfg.TokenAsset(),
		Accounts:    reg.Len(),
		Trees:       forest.Roots,
		Broken:      forest.Broken,
		Incomplete:  forest.Incomplete,
		Candidates:  candidates,
		Council:     elected,
		Plans:       plans,
	}, nil
}

// plan fetches each signer account live and diffs it against the council.
func (c *Collector) plan(ctx context.Context, elected council.Council) ([]council.Plan, error) {
	plans := []council.Plan{}
	if len(c.cfg.SignerAccounts) == 0 {
		return plans, nil
	}
	if len(elected.Members) == 0 {
		c.log.Printf("No council candidates, skipping signer plans for %d accounts", len(c.cfg.SignerAccounts))
		return plans, nil
	}

	desired := elected.Weights()
	for _, id := range c.cfg.SignerAccounts {
		acc, err := c.live.Account(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetch signer account %s: %w", id, err)
		}
		p, err := council.PlanSigners(acc, desired, elected.Threshold)
		if err != nil {
			return nil, fmt.Errorf("plan signers for %s: %w", id, err)
		}
		c.log.Debugf("plan %s: %d signer changes, thresholds=%t master=%t",
			id, len(p.Signers), p.Thresholds.IsSome(), p.MasterKey.IsSome())
		plans = append(plans, p)
	}
	return plans, nil
}

// Run computes once and hands the result to emit. With a schedule configured
// it then recomputes on every tick until ctx is cancelled; a failed tick is
// logged and the next one still runs. A tick arriving while the previous run
// is still busy is skipped.
func (c *Collector) Run(ctx context.Context, emit func(*Result) error) error {
	runOnce := func() error {
		res, err := c.Compute(ctx)
		if err != nil {
			return err
		}
		return emit(res)
	}

	if err := runOnce(); err != nil {
		return err
	}
	if c.cfg.Schedule == "" {
		return nil
	}

	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(c.log))))
	if _, err := sched.AddFunc(c.cfg.Schedule, func() {
		if ctx.Err() != nil {
			return
		}
		if err := runOnce(); err != nil && ctx.Err() == nil {
			c.log.Printf("Scheduled run failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid SCHEDULE %q: %w", c.cfg.Schedule, err)
	}
	c.log.Printf("Recomputing on schedule %q", c.cfg.Schedule)
	sched.Start()

	<-ctx.Done()
	<-sched.Stop().Done()
	return nil
}
