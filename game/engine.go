package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bellapacxx/bingo-engine/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultRetention = 30 * time.Minute

type Config struct {
	CallInterval    time.Duration
	AutoResumeDelay time.Duration
	DefaultRates    Rates

	// Retention is how long a completed session stays readable before it is
	// dropped from memory. Its history lives on in the ledger.
	Retention time.Duration

	RetryBase time.Duration
	RetryMax  time.Duration

	Broadcaster Broadcaster
	Ledger      Ledger
	Rates       RateSource

	Logger *zap.SugaredLogger
	Now    func() time.Time
}

// Engine owns the live sessions of a process and routes operator commands to
// them. Ledger writes leave the session lock before they run, and failures are
// retried in the background so a slow database never stalls the caller.
type Engine struct {
	cfg   Config
	log   *zap.SugaredLogger
	retry *retrier

	mu        sync.RWMutex
	sessions  map[string]*Session
	evictions map[string]*time.Timer
	closed    bool
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.DefaultRates.Validate(); err != nil {
		return nil, fmt.Errorf("default rates: %w", err)
	}
	if cfg.Broadcaster == nil {
		cfg.Broadcaster = discardBroadcaster{}
	}
	if cfg.Ledger == nil {
		cfg.Ledger = discardLedger{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Named("engine")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}

	return &Engine{
		cfg:       cfg,
		log:       cfg.Logger,
		retry:     newRetrier(cfg.RetryBase, cfg.RetryMax, cfg.Logger),
		sessions:  make(map[string]*Session),
		evictions: make(map[string]*time.Timer),
	}, nil
}

// CreateSession opens a pending session. The shop's rates are resolved once
// here and frozen for the life of the session.
func (e *Engine) CreateSession(ctx context.Context, shopID, employeeID string, entryFee Amount) (string, error) {
	rates := e.cfg.DefaultRates
	if e.cfg.Rates != nil {
		r, err := e.cfg.Rates.Rates(ctx, shopID)
		if err != nil {
			return "", fmt.Errorf("resolve rates for shop %s: %w", shopID, err)
		}
		rates = r
	}

	id := uuid.NewString()
	s, err := NewSession(SessionOptions{
		ID:              id,
		ShopID:          shopID,
		EmployeeID:      employeeID,
		EntryFee:        entryFee,
		Rates:           rates,
		CallInterval:    e.cfg.CallInterval,
		AutoResumeDelay: e.cfg.AutoResumeDelay,
		Broadcaster:     e.cfg.Broadcaster,
		OnEntryFee:      e.recordEntryFee,
		OnCompletion:    e.recordCompletion,
		Logger:          e.log.Named("session"),
		Now:             e.cfg.Now,
	})
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	e.sessions[id] = s
	e.mu.Unlock()

	e.log.Infow("session created",
		"session", id,
		"shop", shopID,
		"employee", employeeID,
		"entryFee", entryFee.String(),
		"margin", rates.ProfitMargin.String())
	return id, nil
}

// Session returns a snapshot of one session.
func (e *Engine) Session(sessionID string) (Snapshot, error) {
	s, err := e.lookup(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// Sessions returns snapshots of every session, newest first.
func (e *Engine) Sessions() []Snapshot {
	e.mu.RLock()
	out := make([]Snapshot, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, s.Snapshot())
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (e *Engine) UpdateEntryFee(sessionID string, fee Amount) error {
	s, err := e.lookup(sessionID)
	if err != nil {
		return err
	}
	return s.UpdateEntryFee(fee)
}

func (e *Engine) RegisterPlayer(sessionID string, cartelaID int, fee Amount, label string) (Booking, error) {
	s, err := e.lookup(sessionID)
	if err != nil {
		return Booking{}, err
	}
	return s.RegisterPlayer(cartelaID, fee, label)
}

func (e *Engine) StartSession(sessionID string) error {
	s, err := e.lookup(sessionID)
	if err != nil {
		return err
	}
	return s.Start()
}

func (e *Engine) PauseSession(sessionID string) error {
	s, err := e.lookup(sessionID)
	if err != nil {
		return err
	}
	return s.Pause()
}

func (e *Engine) ResumeSession(sessionID string) error {
	s, err := e.lookup(sessionID)
	if err != nil {
		return err
	}
	return s.Resume()
}

func (e *Engine) CallNextNumber(sessionID string) (CallResult, error) {
	s, err := e.lookup(sessionID)
	if err != nil {
		return CallResult{}, err
	}
	return s.CallNext()
}

func (e *Engine) CheckWinner(sessionID string, cartelaID int) (Verdict, error) {
	s, err := e.lookup(sessionID)
	if err != nil {
		return Verdict{}, err
	}
	return s.RequestWinCheck(cartelaID)
}

func (e *Engine) AcceptWinner(sessionID string, cartelaID int, pattern string) (ProfitRecord, error) {
	s, err := e.lookup(sessionID)
	if err != nil {
		return ProfitRecord{}, err
	}
	return s.AcceptWin(cartelaID, pattern)
}

func (e *Engine) ForceEnd(sessionID, reason string) (ProfitRecord, error) {
	s, err := e.lookup(sessionID)
	if err != nil {
		return ProfitRecord{}, err
	}
	return s.ForceComplete(reason)
}

// Close stops every session's timers and abandons ledger retries still in
// flight. Pending writes are keyed, so replaying them later is safe.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	for id, t := range e.evictions {
		t.Stop()
		delete(e.evictions, id)
	}
	for _, s := range e.sessions {
		s.close()
	}
	e.mu.Unlock()
	e.retry.close()
}

func (e *Engine) lookup(sessionID string) (*Session, error) {
	e.mu.RLock()
	s, ok := e.sessions[sessionID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return s, nil
}

func (e *Engine) recordEntryFee(rec EntryFeeRecord) {
	e.retry.do(rec.Key(), func(ctx context.Context) error {
		return e.cfg.Ledger.RecordEntryFee(ctx, rec)
	})
}

func (e *Engine) recordCompletion(rec CompletionRecord) {
	e.retry.do(rec.Key(), func(ctx context.Context) error {
		return e.cfg.Ledger.RecordCompletion(ctx, rec)
	})
	e.scheduleEviction(rec.SessionID)
}

func (e *Engine) scheduleEviction(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if _, ok := e.evictions[sessionID]; ok {
		return
	}
	e.evictions[sessionID] = time.AfterFunc(e.cfg.Retention, func() { e.evict(sessionID) })
}

func (e *Engine) evict(sessionID string) {
	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	delete(e.sessions, sessionID)
	delete(e.evictions, sessionID)
	e.mu.Unlock()

	if ok {
		s.close()
		e.log.Debugw("completed session evicted", "session", sessionID)
	}
}
