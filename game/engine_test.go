package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	mu          sync.Mutex
	failures    int // remaining calls to fail
	attempts    int
	fees        map[string]EntryFeeRecord
	completions map[string]CompletionRecord
}

func newFakeLedger(failures int) *fakeLedger {
	return &fakeLedger{
		failures:    failures,
		fees:        map[string]EntryFeeRecord{},
		completions: map[string]CompletionRecord{},
	}
}

func (l *fakeLedger) fail() error {
	l.attempts++
	if l.failures > 0 {
		l.failures--
		return errors.New("connection refused")
	}
	return nil
}

func (l *fakeLedger) RecordEntryFee(_ context.Context, rec EntryFeeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fail(); err != nil {
		return err
	}
	l.fees[rec.Key()] = rec
	return nil
}

func (l *fakeLedger) RecordCompletion(_ context.Context, rec CompletionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fail(); err != nil {
		return err
	}
	l.completions[rec.Key()] = rec
	return nil
}

func (l *fakeLedger) counts() (fees, completions, attempts int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fees), len(l.completions), l.attempts
}

type fixedRates map[string]Rates

func (f fixedRates) Rates(_ context.Context, shopID string) (Rates, error) {
	r, ok := f[shopID]
	if !ok {
		return Rates{}, errors.New("shop lookup failed")
	}
	return r, nil
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.DefaultRates.ProfitMargin.IsZero() {
		cfg.DefaultRates = testRates
	}
	if cfg.RetryBase == 0 {
		cfg.RetryBase = time.Millisecond
		cfg.RetryMax = 5 * time.Millisecond
	}
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestEngine_FullGame(t *testing.T) {
	drawAscending(t)
	ledger := newFakeLedger(0)
	e := newTestEngine(t, Config{Ledger: ledger})
	ctx := context.Background()

	id, err := e.CreateSession(ctx, "shop-1", "emp-1", MustAmount("20.00"))
	require.NoError(t, err)

	for cartela := 1; cartela <= 10; cartela++ {
		_, err := e.RegisterPlayer(id, cartela, MustAmount("20.00"), "")
		require.NoError(t, err)
	}
	require.NoError(t, e.StartSession(id))
	for i := 0; i < 13; i++ {
		_, err := e.CallNextNumber(id)
		require.NoError(t, err)
	}

	v, err := e.CheckWinner(id, 1)
	require.NoError(t, err)
	require.True(t, v.IsWinner)

	p, err := e.AcceptWinner(id, 1, v.Pattern)
	require.NoError(t, err)
	assert.Equal(t, MustAmount("200.00"), p.TotalCollected)
	assert.Equal(t, MustAmount("40.00"), p.AdminProfit)
	assert.Equal(t, MustAmount("160.00"), p.PrizeAmount)
	assert.Equal(t, MustAmount("6.00"), p.SuperAdminCommission)

	fees, completions, _ := ledger.counts()
	assert.Equal(t, 10, fees)
	assert.Equal(t, 1, completions)

	ledger.mu.Lock()
	rec := ledger.completions[id]
	ledger.mu.Unlock()
	require.NotNil(t, rec.WinnerCartelaID)
	assert.Equal(t, 1, *rec.WinnerCartelaID)
	assert.Equal(t, "Vertical B Column", rec.Pattern)
	assert.Equal(t, p, rec.Profit)
	assert.Equal(t, "shop-1", rec.ShopID)
}

func TestEngine_UsesShopRates(t *testing.T) {
	e := newTestEngine(t, Config{Rates: fixedRates{
		"shop-a": {ProfitMargin: dec("0.30"), Commission: dec("0.10"), Referral: decPtr("0.05")},
	}})
	ctx := context.Background()

	id, err := e.CreateSession(ctx, "shop-a", "emp-1", MustAmount("10.00"))
	require.NoError(t, err)
	for _, c := range []int{1, 2} {
		_, err := e.RegisterPlayer(id, c, MustAmount("10.00"), "")
		require.NoError(t, err)
	}
	require.NoError(t, e.StartSession(id))

	p, err := e.ForceEnd(id, "")
	require.NoError(t, err)
	assert.Equal(t, MustAmount("6.00"), p.AdminProfit)
	assert.Equal(t, MustAmount("14.00"), p.PrizeAmount)
	assert.Equal(t, MustAmount("0.60"), p.SuperAdminCommission)
	require.NotNil(t, p.ReferralBonus)
	assert.Equal(t, MustAmount("0.30"), *p.ReferralBonus)

	_, err = e.CreateSession(ctx, "unknown", "emp-1", MustAmount("10.00"))
	assert.Error(t, err)
}

func TestEngine_UnknownSession(t *testing.T) {
	e := newTestEngine(t, Config{})

	_, err := e.Session("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, e.StartSession("nope"), ErrSessionNotFound)
	assert.ErrorIs(t, e.PauseSession("nope"), ErrSessionNotFound)
	assert.ErrorIs(t, e.ResumeSession("nope"), ErrSessionNotFound)
	assert.ErrorIs(t, e.UpdateEntryFee("nope", 100), ErrSessionNotFound)
	_, err = e.RegisterPlayer("nope", 1, 100, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = e.CallNextNumber("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = e.CheckWinner("nope", 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = e.AcceptWinner("nope", 1, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = e.ForceEnd("nope", "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEngine_CreateSessionValidation(t *testing.T) {
	e := newTestEngine(t, Config{})
	_, err := e.CreateSession(context.Background(), "shop-1", "emp-1", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, e.Sessions())

	_, err = NewEngine(Config{DefaultRates: Rates{ProfitMargin: dec("0.5"), Commission: dec("1.5")}})
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestEngine_SessionsNewestFirst(t *testing.T) {
	var mu sync.Mutex
	clock := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	e := newTestEngine(t, Config{Now: func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Minute)
		return clock
	}})
	ctx := context.Background()

	first, err := e.CreateSession(ctx, "shop-1", "emp-1", 100)
	require.NoError(t, err)
	second, err := e.CreateSession(ctx, "shop-1", "emp-1", 100)
	require.NoError(t, err)

	list := e.Sessions()
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, first, list[1].ID)
}

func TestEngine_RetriesLedgerWrites(t *testing.T) {
	ledger := newFakeLedger(3)
	e := newTestEngine(t, Config{Ledger: ledger})
	ctx := context.Background()

	id, err := e.CreateSession(ctx, "shop-1", "emp-1", 100)
	require.NoError(t, err)
	_, err = e.RegisterPlayer(id, 5, 100, "")
	require.NoError(t, err, "booking succeeds while the ledger is down")

	require.Eventually(t, func() bool {
		fees, _, _ := ledger.counts()
		return fees == 1
	}, 2*time.Second, time.Millisecond)

	_, _, attempts := ledger.counts()
	assert.Equal(t, 4, attempts)
}

func TestEngine_EvictsCompletedSessions(t *testing.T) {
	e := newTestEngine(t, Config{Retention: 50 * time.Millisecond})
	ctx := context.Background()

	done, err := e.CreateSession(ctx, "shop-1", "emp-1", MustAmount("10.00"))
	require.NoError(t, err)
	live, err := e.CreateSession(ctx, "shop-1", "emp-1", MustAmount("10.00"))
	require.NoError(t, err)
	require.NoError(t, e.StartSession(done))
	require.NoError(t, e.StartSession(live))

	_, err = e.ForceEnd(done, "")
	require.NoError(t, err)
	snap, err := e.Session(done)
	require.NoError(t, err, "completed sessions stay readable for a while")
	assert.Equal(t, StatusCompleted, snap.Status)

	require.Eventually(t, func() bool {
		_, err := e.Session(done)
		return errors.Is(err, ErrSessionNotFound)
	}, time.Second, time.Millisecond)

	_, err = e.Session(live)
	require.NoError(t, err)
	assert.Len(t, e.Sessions(), 1)
}
