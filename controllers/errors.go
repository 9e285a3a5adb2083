package controllers

import (
	"errors"
	"net/http"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/gin-gonic/gin"
)

type errorKind struct {
	err    error
	status int
	code   string
}

var errorKinds = []errorKind{
	{game.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{game.ErrInvalidCartela, http.StatusBadRequest, "invalid_cartela"},
	{game.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{game.ErrInvalidRate, http.StatusBadRequest, "invalid_rate"},
	{game.ErrDuplicateBooking, http.StatusConflict, "duplicate_booking"},
	{game.ErrEntryFeeMismatch, http.StatusConflict, "entry_fee_mismatch"},
	{game.ErrCartelaNotBooked, http.StatusConflict, "cartela_not_booked"},
	{game.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{game.ErrNotAWinner, http.StatusUnprocessableEntity, "not_a_winner"},
	{game.ErrDuplicateNumber, http.StatusInternalServerError, "duplicate_number"},
}

func kindOf(err error) (errorKind, bool) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k, true
		}
	}
	return errorKind{}, false
}

func respondError(c *gin.Context, err error) {
	k, ok := kindOf(err)
	if !ok {
		k = errorKind{status: http.StatusInternalServerError, code: "internal"}
	}
	c.JSON(k.status, gin.H{"error": err.Error(), "code": k.code})
}

// bindError reports a malformed request body, keeping a domain code when the
// decoder failed on one of the engine's own types.
func bindError(c *gin.Context, err error) {
	k, ok := kindOf(err)
	if !ok {
		k = errorKind{status: http.StatusBadRequest, code: "bad_request"}
	}
	c.JSON(k.status, gin.H{"error": err.Error(), "code": k.code})
}
