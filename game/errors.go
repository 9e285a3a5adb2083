package game

import "errors"

// Error kinds surfaced by the engine. Callers match them with errors.Is; the
// returned errors usually wrap one of these with the offending value.
var (
	ErrInvalidCartela    = errors.New("invalid cartela")
	ErrDuplicateBooking  = errors.New("cartela already booked")
	ErrCartelaNotBooked  = errors.New("cartela not booked for this game")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrDuplicateNumber   = errors.New("number already called")
	ErrNotAWinner        = errors.New("not a winning pattern")
	ErrSessionNotFound   = errors.New("session not found")
	ErrEntryFeeMismatch  = errors.New("entry fee does not match session")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidRate       = errors.New("invalid rate")
)
