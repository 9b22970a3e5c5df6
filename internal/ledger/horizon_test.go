package ledger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"council-delegation/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// horizonAccount renders an account the way Horizon serves it: the master
// key appears among the signers and native balances carry no asset code.
func horizonAccount(id string, amount string, signers map[string]int32) map[string]any {
	list := []map[string]any{}
	for key, w := range signers {
		list = append(list, map[string]any{"key": key, "weight": w, "type": "ed25519_public_key"})
	}
	return map[string]any{
		"id":         id,
		"account_id": id,
		"balances": []map[string]any{
			{"balance": "100.0000000", "asset_type": "native"},
			{"balance": amount, "asset_type": "credit_alphanum12", "asset_code": code, "asset_issuer": issuer},
		},
		"signers":    list,
		"thresholds": map[string]any{"low_threshold": 1, "med_threshold": 2, "high_threshold": 3},
		"data":       map[string]string{"mtla_c_delegate": "cmVhZHk="},
	}
}

type fakeHorizon struct {
	srv      *httptest.Server
	pages    [][]map[string]any
	failPage int // 1-based page answered with a server error, 0 for none
	detail   map[string]map[string]any
	requests atomic.Int32
}

func newFakeHorizon(t *testing.T) *fakeHorizon {
	h := &fakeHorizon{detail: map[string]map[string]any{}}
	h.srv = httptest.NewServer(http.HandlerFunc(h.serve))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *fakeHorizon) serve(w http.ResponseWriter, r *http.Request) {
	h.requests.Add(1)
	w.Header().Set("Content-Type", "application/hal+json")

	if id, ok := strings.CutPrefix(r.URL.Path, "/accounts/"); ok {
		acc, found := h.detail[id]
		if !found {
			writeProblem(w, http.StatusNotFound, "https://stellar.org/horizon-errors/not_found")
			return
		}
		_ = json.NewEncoder(w).Encode(acc)
		return
	}

	page := 1
	if c := r.URL.Query().Get("cursor"); c != "" {
		page = int(c[0] - '0')
	}
	if page == h.failPage {
		writeProblem(w, http.StatusInternalServerError, "https://stellar.org/horizon-errors/server_error")
		return
	}
	records := []map[string]any{}
	if page <= len(h.pages) {
		records = h.pages[page-1]
	}
	next := h.srv.URL + "/accounts?asset=" + r.URL.Query().Get("asset") + "&cursor=" + string(rune('0'+page+1))
	_ = json.NewEncoder(w).Encode(map[string]any{
		"_links":    map[string]any{"next": map[string]any{"href": next}},
		"_embedded": map[string]any{"records": records},
	})
}

func writeProblem(w http.ResponseWriter, status int, typ string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"type": typ, "title": http.StatusText(status), "status": status})
}

func TestHorizonTokenHoldersDrainsAllPages(t *testing.T) {
	h := newFakeHorizon(t)
	h.pages = [][]map[string]any{
		{
			horizonAccount("GA", "12.5000000", map[string]int32{"GA": 7, "GS": 2}),
			horizonAccount("GB", "3", nil),
		},
		{horizonAccount("GC", "1", nil)},
	}

	holders, err := ledger.NewHorizon(h.srv.URL).TokenHolders(context.Background(), asset)
	require.NoError(t, err)
	require.Len(t, holders, 3)
	assert.Equal(t, []string{"GA", "GB", "GC"}, []string{holders[0].ID, holders[1].ID, holders[2].ID})
	assert.EqualValues(t, 3, h.requests.Load(), "two pages and the terminating empty page")

	a := holders[0]
	assert.EqualValues(t, 7, a.MasterWeight)
	assert.Equal(t, []ledger.Signer{{Key: "GS", Weight: 2}}, a.Signers)
	require.Len(t, a.Balances, 1, "native balance dropped")
	assert.EqualValues(t, 12, a.TokenAmount(code, issuer))
	assert.Equal(t, ledger.Thresholds{Low: 1, Med: 2, High: 3}, a.Thresholds)
	assert.Equal(t, "cmVhZHk=", a.Data["mtla_c_delegate"])
}

func TestHorizonTokenHoldersFailsOnBrokenPage(t *testing.T) {
	h := newFakeHorizon(t)
	h.pages = [][]map[string]any{
		{horizonAccount("GA", "1", nil)},
		{horizonAccount("GB", "1", nil)},
	}
	h.failPage = 2

	holders, err := ledger.NewHorizon(h.srv.URL).TokenHolders(context.Background(), asset)
	assert.Error(t, err)
	assert.Nil(t, holders)
}

func TestHorizonAccount(t *testing.T) {
	h := newFakeHorizon(t)
	h.detail["GM"] = horizonAccount("GM", "0", map[string]int32{"GM": 0, "GA": 1})
	gw := ledger.NewHorizon(h.srv.URL)

	m, err := gw.Account(context.Background(), "GM")
	require.NoError(t, err)
	assert.Zero(t, m.MasterWeight)
	assert.Equal(t, []ledger.Signer{{Key: "GA", Weight: 1}}, m.Signers)

	_, err = gw.Account(context.Background(), "GMISSING")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestHorizonHonoursCancellation(t *testing.T) {
	h := newFakeHorizon(t)
	gw := ledger.NewHorizon(h.srv.URL)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gw.TokenHolders(cancelled, asset)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, h.requests.Load())

	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(slow.Close)
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	started := time.Now()
	_, err = ledger.NewHorizon(slow.URL).Account(ctx, "GA")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), 5*time.Second)
}
