package ledger

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
)

// HolderPageLimit is the largest page Horizon serves for /accounts.
const HolderPageLimit = 200

// Horizon is a Gateway backed by a Horizon REST endpoint. Every request is
// bound to the caller's context, so cancellation aborts in-flight fetches.
type Horizon struct {
	url  string
	http *http.Client
}

var _ Gateway = &Horizon{}

// NewHorizon creates a gateway for the Horizon server at horizonURL.
func NewHorizon(horizonURL string) *Horizon {
	return &Horizon{
		url:  horizonURL,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// client returns a horizonclient whose requests carry ctx.
func (h *Horizon) client(ctx context.Context) *horizonclient.Client {
	return &horizonclient.Client{
		HorizonURL: h.url,
		HTTP:       ctxHTTP{ctx: ctx, client: h.http},
	}
}

// ctxHTTP implements horizonclient.HTTP, replacing the request context with
// the caller's. The http.Client timeout still bounds every request.
type ctxHTTP struct {
	ctx    context.Context
	client *http.Client
}

func (c ctxHTTP) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}

func (c ctxHTTP) Get(u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

func (c ctxHTTP) PostForm(u string, data url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, u, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.client.Do(req)
}

// TokenHolders drains /accounts?asset=... page by page until an empty page
// comes back. Any page failure fails the whole listing; a partial
// membership set is never returned.
func (h *Horizon) TokenHolders(ctx context.Context, asset string) ([]Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client := h.client(ctx)
	page, err := client.Accounts(horizonclient.AccountsRequest{Asset: asset, Limit: HolderPageLimit})
	if err != nil {
		return nil, fmt.Errorf("list holders of %s: %w", asset, err)
	}

	var out []Account
	for len(page.Embedded.Records) > 0 {
		for _, rec := range page.Embedded.Records {
			out = append(out, fromHorizon(rec))
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err = client.NextAccountsPage(page)
		if err != nil {
			return nil, fmt.Errorf("list holders of %s (after %d): %w", asset, len(out), err)
		}
	}
	return out, nil
}

func (h *Horizon) Account(ctx context.Context, id string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	rec, err := h.client(ctx).AccountDetail(horizonclient.AccountRequest{AccountID: id})
	if err != nil {
		if horizonclient.IsNotFoundError(err) {
			return Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		return Account{}, fmt.Errorf("account %s: %w", id, err)
	}
	return fromHorizon(rec), nil
}

func fromHorizon(rec hProtocol.Account) Account {
	a := Account{
		ID:   rec.AccountID,
		Data: rec.Data,
		Thresholds: Thresholds{
			Low:  rec.Thresholds.LowThreshold,
			Med:  rec.Thresholds.MedThreshold,
			High: rec.Thresholds.HighThreshold,
		},
	}
	for _, b := range rec.Balances {
		if b.Code == "" {
			continue // native and pool shares
		}
		a.Balances = append(a.Balances, Balance{Code: b.Code, Issuer: b.Issuer, Balance: b.Balance})
	}
	for _, s := range rec.Signers {
		if s.Key == rec.AccountID {
			a.MasterWeight = s.Weight
			continue
		}
		a.Signers = append(a.Signers, Signer{Key: s.Key, Weight: s.Weight})
	}
	return a
}
