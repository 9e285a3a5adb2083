package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bellapacxx/bingo-engine/metrics"
	"github.com/bellapacxx/bingo-engine/utils/logger"

	"go.uber.org/zap"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

const (
	ReasonWinner    = "winner"
	ReasonExhausted = "exhausted"
	ReasonOperator  = "operator"
)

const (
	eventBuffer    = 128
	publishTimeout = 2 * time.Second
)

// Booking is one cartela sold for a session.
type Booking struct {
	CartelaID    int       `json:"cartelaId"`
	PlayerLabel  string    `json:"playerLabel"`
	EntryFeePaid Amount    `json:"entryFeePaid"`
	Grid         Grid      `json:"grid"`
	BookedAt     time.Time `json:"bookedAt"`
}

// Snapshot is a point-in-time copy of a session, safe to hand to clients.
// Seq grows with every emitted event, so a client that already holds a higher
// Seq can drop a snapshot that reached it late.
type Snapshot struct {
	ID              string        `json:"id"`
	Seq             uint64        `json:"seq"`
	ShopID          string        `json:"shopId"`
	EmployeeID      string        `json:"employeeId"`
	Status          Status        `json:"status"`
	EntryFee        Amount        `json:"entryFee"`
	PrizePool       Amount        `json:"prizePool"`
	CalledNumbers   []int         `json:"calledNumbers"`
	Bookings        []Booking     `json:"bookings"`
	WinnerCartelaID *int          `json:"winnerCartelaId"`
	WinningPattern  string        `json:"winningPattern,omitempty"`
	Reason          string        `json:"reason,omitempty"`
	ProfitRecord    *ProfitRecord `json:"profitRecord,omitempty"`
	AutoCall        bool          `json:"autoCall"`
	CreatedAt       time.Time     `json:"createdAt"`
	StartedAt       *time.Time    `json:"startedAt,omitempty"`
	CompletedAt     *time.Time    `json:"completedAt,omitempty"`
}

// CallResult is returned by a manual call. Completed is set instead of a
// number when the call found nothing left to draw and ended the session.
type CallResult struct {
	Number        int           `json:"number"`
	CalledNumbers []int         `json:"calledNumbers"`
	Completed     bool          `json:"completed"`
	ProfitRecord  *ProfitRecord `json:"profitRecord,omitempty"`
}

type SessionOptions struct {
	ID         string
	ShopID     string
	EmployeeID string
	EntryFee   Amount
	Rates      Rates

	CallInterval    time.Duration // 0 disables automatic calling
	AutoResumeDelay time.Duration // 0 leaves a rejected claim paused

	Broadcaster Broadcaster

	// OnEntryFee and OnCompletion run after the transition has committed,
	// outside the session lock.
	OnEntryFee   func(EntryFeeRecord)
	OnCompletion func(CompletionRecord)

	Logger *zap.SugaredLogger
	Now    func() time.Time
}

type winConfirmation struct {
	calls   int // len(called) at the time of the check
	pattern string
}

// Session is the state machine of one bingo game. All state is guarded by mu;
// the number caller's tick takes the same lock, so pause, resume, win checks
// and completion are ordered strictly before or after any call.
type Session struct {
	mu sync.Mutex

	id         string
	shopID     string
	employeeID string
	entryFee   Amount
	rates      Rates

	status    Status
	called    []int
	calledSet [MaxNumber + 1]bool
	bookings  map[int]Booking
	order     []int
	prizePool Amount

	winner  *int
	pattern string
	reason  string
	profit  *ProfitRecord

	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time

	confirmed map[int]winConfirmation

	caller      caller
	resumeDelay time.Duration
	resumeTimer *time.Timer
	resumeGen   uint64
	checkPaused bool // paused by a win check rather than the operator

	sink         Broadcaster
	events       chan Event
	eventsClosed bool
	seq          uint64

	onEntryFee   func(EntryFeeRecord)
	onCompletion func(CompletionRecord)

	log *zap.SugaredLogger
	now func() time.Time
}

// NewSession returns a pending session and starts its event dispatcher.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.EntryFee <= 0 {
		return nil, fmt.Errorf("%w: entry fee must be positive", ErrInvalidAmount)
	}
	if err := opts.Rates.Validate(); err != nil {
		return nil, err
	}
	if opts.Broadcaster == nil {
		opts.Broadcaster = discardBroadcaster{}
	}
	if opts.OnEntryFee == nil {
		opts.OnEntryFee = func(EntryFeeRecord) {}
	}
	if opts.OnCompletion == nil {
		opts.OnCompletion = func(CompletionRecord) {}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Named("game")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		id:           opts.ID,
		shopID:       opts.ShopID,
		employeeID:   opts.EmployeeID,
		entryFee:     opts.EntryFee,
		rates:        opts.Rates,
		status:       StatusPending,
		called:       []int{},
		bookings:     make(map[int]Booking),
		confirmed:    make(map[int]winConfirmation),
		caller:       caller{interval: opts.CallInterval},
		resumeDelay:  opts.AutoResumeDelay,
		sink:         opts.Broadcaster,
		events:       make(chan Event, eventBuffer),
		onEntryFee:   opts.OnEntryFee,
		onCompletion: opts.OnCompletion,
		log:          opts.Logger.With("session", opts.ID),
		now:          opts.Now,
	}
	s.createdAt = s.now()

	go s.dispatch()
	metrics.ActiveSessions.Inc()
	return s, nil
}

func (s *Session) ID() string { return s.id }

// UpdateEntryFee changes the fee of a pending session that has no bookings yet.
func (s *Session) UpdateEntryFee(fee Amount) error {
	if fee <= 0 {
		return fmt.Errorf("%w: entry fee must be positive", ErrInvalidAmount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPending || len(s.bookings) > 0 {
		return s.invalidLocked("update entry fee")
	}
	s.entryFee = fee
	return nil
}

// RegisterPlayer books a cartela and adds the entry fee to the prize pool.
func (s *Session) RegisterPlayer(cartelaID int, fee Amount, label string) (Booking, error) {
	grid, err := Generate(cartelaID)
	if err != nil {
		return Booking{}, err
	}

	s.mu.Lock()
	if s.status != StatusPending && s.status != StatusActive {
		err := s.invalidLocked("register player")
		s.mu.Unlock()
		return Booking{}, err
	}
	if _, ok := s.bookings[cartelaID]; ok {
		s.mu.Unlock()
		return Booking{}, fmt.Errorf("%w: cartela %d", ErrDuplicateBooking, cartelaID)
	}
	if fee != s.entryFee {
		want := s.entryFee
		s.mu.Unlock()
		return Booking{}, fmt.Errorf("%w: got %s, want %s", ErrEntryFeeMismatch, fee, want)
	}

	if label == "" {
		label = fmt.Sprintf("Player %d", cartelaID)
	}
	b := Booking{
		CartelaID:    cartelaID,
		PlayerLabel:  label,
		EntryFeePaid: fee,
		Grid:         grid,
		BookedAt:     s.now(),
	}
	s.bookings[cartelaID] = b
	s.order = append(s.order, cartelaID)
	s.prizePool += fee
	s.emitLocked(Event{Type: EventPlayerRegistered, CartelaID: cartelaID})

	rec := EntryFeeRecord{
		SessionID:   s.id,
		ShopID:      s.shopID,
		EmployeeID:  s.employeeID,
		CartelaID:   cartelaID,
		PlayerLabel: label,
		Amount:      fee,
		At:          b.BookedAt,
	}
	s.mu.Unlock()

	s.onEntryFee(rec)
	return b, nil
}

// Start moves a pending session to active and arms the number caller.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPending {
		return s.invalidLocked("start")
	}
	s.status = StatusActive
	s.startedAt = s.now()
	s.emitLocked(Event{Type: EventGameStarted})
	s.caller.arm(s.tick)
	return nil
}

// Pause halts calling. Once it returns no tick fires until Resume.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelResumeLocked()
	s.checkPaused = false
	return s.pauseLocked("pause")
}

// Resume re-arms the number caller of a paused session.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelResumeLocked()
	return s.resumeLocked()
}

// CallNext draws and records one number immediately. In automatic mode the
// pending tick is cancelled and rescheduled from now.
func (s *Session) CallNext() (CallResult, error) {
	s.mu.Lock()
	if s.status != StatusActive {
		err := s.invalidLocked("call next number")
		s.mu.Unlock()
		return CallResult{}, err
	}
	res, done, err := s.callLocked()
	s.mu.Unlock()

	if done != nil {
		s.onCompletion(*done)
	}
	return res, err
}

// RequestWinCheck pauses the session and evaluates a booked cartela against
// the numbers called so far. A positive verdict is remembered so AcceptWin can
// verify nothing moved in between.
func (s *Session) RequestWinCheck(cartelaID int) (Verdict, error) {
	if !ValidCartela(cartelaID) {
		return Verdict{}, fmt.Errorf("%w: %d", ErrInvalidCartela, cartelaID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive && s.status != StatusPaused {
		return Verdict{}, s.invalidLocked("check winner")
	}
	b, ok := s.bookings[cartelaID]
	if !ok {
		return Verdict{}, fmt.Errorf("%w: cartela %d", ErrCartelaNotBooked, cartelaID)
	}

	// only a pause this check caused, or an earlier check caused, is undone
	// by the auto-resume
	resumable := s.status == StatusActive || s.checkPaused
	s.cancelResumeLocked()
	if err := s.pauseLocked("check winner"); err != nil {
		return Verdict{}, err
	}
	s.checkPaused = resumable

	v := Evaluate(b.Grid, s.called)
	if v.IsWinner {
		s.confirmed[cartelaID] = winConfirmation{calls: len(s.called), pattern: v.Pattern}
		metrics.WinChecks.WithLabelValues("winner").Inc()
		s.log.Infow("win confirmed", "cartela", cartelaID, "pattern", v.Pattern, "calls", len(s.called))
		return v, nil
	}

	delete(s.confirmed, cartelaID)
	metrics.WinChecks.WithLabelValues("rejected").Inc()
	s.log.Infow("claim rejected", "cartela", cartelaID, "calls", len(s.called))
	if resumable && len(s.confirmed) == 0 {
		s.scheduleResumeLocked()
	}
	return v, nil
}

// AcceptWin completes the session with cartelaID as the winner. The win is
// re-evaluated against the current called numbers; a confirmation from an
// earlier check is only honoured if no number was called since.
func (s *Session) AcceptWin(cartelaID int, pattern string) (ProfitRecord, error) {
	if !ValidCartela(cartelaID) {
		return ProfitRecord{}, fmt.Errorf("%w: %d", ErrInvalidCartela, cartelaID)
	}
	s.mu.Lock()
	rec, err := s.acceptLocked(cartelaID, pattern)
	s.mu.Unlock()
	if err != nil {
		return ProfitRecord{}, err
	}

	s.onCompletion(rec)
	return rec.Profit, nil
}

func (s *Session) acceptLocked(cartelaID int, pattern string) (CompletionRecord, error) {
	if s.status != StatusActive && s.status != StatusPaused {
		return CompletionRecord{}, s.invalidLocked("accept winner")
	}
	b, ok := s.bookings[cartelaID]
	if !ok {
		return CompletionRecord{}, fmt.Errorf("%w: cartela %d", ErrCartelaNotBooked, cartelaID)
	}
	c, ok := s.confirmed[cartelaID]
	if !ok || c.calls != len(s.called) {
		return CompletionRecord{}, fmt.Errorf("%w: cartela %d has no current confirmation, check it again", ErrNotAWinner, cartelaID)
	}
	v := Evaluate(b.Grid, s.called)
	if !v.IsWinner {
		delete(s.confirmed, cartelaID)
		return CompletionRecord{}, fmt.Errorf("%w: cartela %d", ErrNotAWinner, cartelaID)
	}
	if pattern != "" && pattern != v.Pattern {
		return CompletionRecord{}, fmt.Errorf("%w: claimed %q, card shows %q", ErrNotAWinner, pattern, v.Pattern)
	}

	winner := cartelaID
	return s.completeLocked(ReasonWinner, &winner, v.Pattern), nil
}

// ForceComplete ends an active or paused session without a winner. The house
// still takes its margin from the accrued prize pool.
func (s *Session) ForceComplete(reason string) (ProfitRecord, error) {
	if reason == "" {
		reason = ReasonOperator
	}
	s.mu.Lock()
	if s.status != StatusActive && s.status != StatusPaused {
		err := s.invalidLocked("force complete")
		s.mu.Unlock()
		return ProfitRecord{}, err
	}
	rec := s.completeLocked(reason, nil, "")
	s.mu.Unlock()

	s.onCompletion(rec)
	return rec.Profit, nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// close stops timers and the dispatcher without completing the session.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.caller.cancel()
	s.cancelResumeLocked()
	s.closeEventsLocked()
}

func (s *Session) tick(gen uint64) {
	s.mu.Lock()
	if !s.caller.current(gen) || s.status != StatusActive {
		s.mu.Unlock()
		return
	}
	s.caller.timer = nil
	_, done, _ := s.callLocked()
	s.mu.Unlock()

	if done != nil {
		s.onCompletion(*done)
	}
}

// callLocked runs one draw-and-record step and arms the next tick only after
// the number is recorded.
func (s *Session) callLocked() (CallResult, *CompletionRecord, error) {
	n, ok := draw(&s.calledSet)
	if !ok {
		rec := s.completeLocked(ReasonExhausted, nil, "")
		return CallResult{
			CalledNumbers: s.calledCopyLocked(),
			Completed:     true,
			ProfitRecord:  &rec.Profit,
		}, &rec, nil
	}

	if err := s.recordCall(n); err != nil {
		if errors.Is(err, ErrDuplicateNumber) {
			s.log.Errorw("duplicate draw, pausing session for investigation", "number", n, "calls", len(s.called))
			s.cancelResumeLocked()
			_ = s.pauseLocked("force pause")
		}
		return CallResult{}, nil, err
	}

	metrics.NumbersCalled.Inc()
	called := s.calledCopyLocked()
	s.emitLocked(Event{
		Type:          EventNumberCalled,
		Number:        n,
		Announcement:  Announce(n),
		CalledNumbers: called,
	})
	s.caller.arm(s.tick)
	return CallResult{Number: n, CalledNumbers: called}, nil, nil
}

// recordCall appends n to the called numbers. The caller holds s.mu.
func (s *Session) recordCall(n int) error {
	if s.status != StatusActive {
		return s.invalidLocked("record call")
	}
	if n < 1 || n > MaxNumber {
		return fmt.Errorf("number %d outside 1-%d", n, MaxNumber)
	}
	if s.calledSet[n] {
		return fmt.Errorf("%w: %d", ErrDuplicateNumber, n)
	}
	s.calledSet[n] = true
	s.called = append(s.called, n)
	return nil
}

func (s *Session) pauseLocked(op string) error {
	switch s.status {
	case StatusPaused:
		return nil
	case StatusActive:
		s.caller.cancel()
		s.status = StatusPaused
		s.emitLocked(Event{Type: EventGamePaused})
		return nil
	}
	return s.invalidLocked(op)
}

func (s *Session) resumeLocked() error {
	switch s.status {
	case StatusActive:
		return nil
	case StatusPaused:
		s.status = StatusActive
		s.checkPaused = false
		s.emitLocked(Event{Type: EventGameResumed})
		s.caller.arm(s.tick)
		return nil
	}
	return s.invalidLocked("resume")
}

func (s *Session) completeLocked(reason string, winner *int, pattern string) CompletionRecord {
	s.caller.cancel()
	s.cancelResumeLocked()

	s.status = StatusCompleted
	s.completedAt = s.now()
	s.winner = winner
	s.pattern = pattern
	s.reason = reason
	s.confirmed = map[int]winConfirmation{}

	profit := split(s.prizePool, s.rates)
	s.profit = &profit

	outcome := "no_winner"
	if winner != nil {
		outcome = "winner"
	}
	metrics.SessionsCompleted.WithLabelValues(outcome).Inc()
	metrics.ActiveSessions.Dec()
	s.log.Infow("session completed",
		"reason", reason,
		"winner", winner,
		"pattern", pattern,
		"calls", len(s.called),
		"total", profit.TotalCollected.String(),
		"prize", profit.PrizeAmount.String(),
		"adminProfit", profit.AdminProfit.String())

	p := profit
	s.emitLocked(Event{
		Type:            EventGameCompleted,
		WinnerCartelaID: winner,
		Reason:          reason,
		ProfitRecord:    &p,
	})
	s.closeEventsLocked()

	return CompletionRecord{
		SessionID:       s.id,
		ShopID:          s.shopID,
		EmployeeID:      s.employeeID,
		Reason:          reason,
		WinnerCartelaID: winner,
		Pattern:         pattern,
		CalledNumbers:   s.calledCopyLocked(),
		PlayerCount:     len(s.bookings),
		EntryFee:        s.entryFee,
		Profit:          profit,
		StartedAt:       s.startedAt,
		CompletedAt:     s.completedAt,
	}
}

func (s *Session) scheduleResumeLocked() {
	s.cancelResumeLocked()
	if s.resumeDelay <= 0 {
		return
	}
	gen := s.resumeGen
	s.resumeTimer = time.AfterFunc(s.resumeDelay, func() { s.autoResume(gen) })
}

func (s *Session) cancelResumeLocked() {
	s.resumeGen++
	if s.resumeTimer != nil {
		s.resumeTimer.Stop()
		s.resumeTimer = nil
	}
}

func (s *Session) autoResume(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.resumeGen || s.status != StatusPaused {
		return
	}
	s.resumeTimer = nil
	_ = s.resumeLocked()
}

func (s *Session) invalidLocked(op string) error {
	s.log.Warnw("invalid transition", "op", op, "status", s.status)
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, s.status)
}

// emitLocked queues an event for the dispatcher. A full buffer drops the event;
// clients recover by fetching a snapshot.
func (s *Session) emitLocked(ev Event) {
	if s.eventsClosed {
		return
	}
	s.seq++
	ev.SessionID = s.id
	ev.Snapshot = s.snapshotLocked()
	ev.At = s.now()

	select {
	case s.events <- ev:
	default:
		s.log.Warnw("event buffer full, dropping event", "type", ev.Type)
	}
}

func (s *Session) closeEventsLocked() {
	if !s.eventsClosed {
		s.eventsClosed = true
		close(s.events)
	}
}

func (s *Session) dispatch() {
	for ev := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := s.sink.Publish(ctx, ev); err != nil {
			s.log.Debugw("broadcast dropped", "type", ev.Type, "error", err)
		}
		cancel()
	}
}

func (s *Session) calledCopyLocked() []int {
	return append(make([]int, 0, len(s.called)), s.called...)
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:             s.id,
		Seq:            s.seq,
		ShopID:         s.shopID,
		EmployeeID:     s.employeeID,
		Status:         s.status,
		EntryFee:       s.entryFee,
		PrizePool:      s.prizePool,
		CalledNumbers:  s.calledCopyLocked(),
		Bookings:       make([]Booking, 0, len(s.order)),
		WinningPattern: s.pattern,
		Reason:         s.reason,
		AutoCall:       s.caller.interval > 0,
		CreatedAt:      s.createdAt,
	}
	for _, id := range s.order {
		snap.Bookings = append(snap.Bookings, s.bookings[id])
	}
	if s.winner != nil {
		w := *s.winner
		snap.WinnerCartelaID = &w
	}
	if s.profit != nil {
		p := *s.profit
		snap.ProfitRecord = &p
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		snap.StartedAt = &t
	}
	if !s.completedAt.IsZero() {
		t := s.completedAt
		snap.CompletedAt = &t
	}
	return snap
}
