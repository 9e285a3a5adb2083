package game

import (
	"context"
	"fmt"
	"time"
)

type EventType string

const (
	EventGameStarted      EventType = "game_started"
	EventNumberCalled     EventType = "number_called"
	EventGamePaused       EventType = "game_paused"
	EventGameResumed      EventType = "game_resumed"
	EventGameCompleted    EventType = "game_completed"
	EventPlayerRegistered EventType = "player_registered"
)

// Event is pushed to the broadcast gateway after a transition commits. Every
// event carries the full snapshot so subscribers can replace their state
// instead of patching it.
type Event struct {
	Type            EventType     `json:"type"`
	SessionID       string        `json:"sessionId"`
	Number          int           `json:"number,omitempty"`
	Announcement    string        `json:"announcement,omitempty"`
	CalledNumbers   []int         `json:"calledNumbers,omitempty"`
	CartelaID       int           `json:"cartelaId,omitempty"`
	WinnerCartelaID *int          `json:"winnerCartelaId"`
	Reason          string        `json:"reason,omitempty"`
	ProfitRecord    *ProfitRecord `json:"profitRecord,omitempty"`
	Snapshot        Snapshot      `json:"snapshot"`
	At              time.Time     `json:"at"`
}

// Broadcaster is the one-way sink for session events. Delivery is best-effort:
// errors are logged and dropped, never fed back into session state.
type Broadcaster interface {
	Publish(ctx context.Context, ev Event) error
}

// Ledger persists money movements. Both writes must be idempotent on Key so a
// retried call never double-credits.
type Ledger interface {
	RecordEntryFee(ctx context.Context, rec EntryFeeRecord) error
	RecordCompletion(ctx context.Context, rec CompletionRecord) error
}

// RateSource resolves the profit split fractions of a shop.
type RateSource interface {
	Rates(ctx context.Context, shopID string) (Rates, error)
}

// EntryFeeRecord is written once per booking.
type EntryFeeRecord struct {
	SessionID   string
	ShopID      string
	EmployeeID  string
	CartelaID   int
	PlayerLabel string
	Amount      Amount
	At          time.Time
}

func (r EntryFeeRecord) Key() string {
	return fmt.Sprintf("entry:%s:%d", r.SessionID, r.CartelaID)
}

// CompletionRecord is written once per completed session.
type CompletionRecord struct {
	SessionID       string
	ShopID          string
	EmployeeID      string
	Reason          string
	WinnerCartelaID *int
	Pattern         string
	CalledNumbers   []int
	PlayerCount     int
	EntryFee        Amount
	Profit          ProfitRecord
	StartedAt       time.Time
	CompletedAt     time.Time
}

func (r CompletionRecord) Key() string {
	return r.SessionID
}

type discardBroadcaster struct{}

func (discardBroadcaster) Publish(context.Context, Event) error { return nil }

type discardLedger struct{}

func (discardLedger) RecordEntryFee(context.Context, EntryFeeRecord) error     { return nil }
func (discardLedger) RecordCompletion(context.Context, CompletionRecord) error { return nil }
