package controllers

import (
	"net/http"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the engine's operator operations over HTTP.
type SessionHandler struct {
	Engine *game.Engine
}

type createSessionRequest struct {
	ShopID     string      `json:"shopId" binding:"required"`
	EmployeeID string      `json:"employeeId" binding:"required"`
	EntryFee   game.Amount `json:"entryFee"`
}

type entryFeeRequest struct {
	EntryFee game.Amount `json:"entryFee"`
}

type registerPlayerRequest struct {
	CartelaID   int         `json:"cartelaId"`
	EntryFee    game.Amount `json:"entryFee"`
	PlayerLabel string      `json:"playerLabel"`
}

type cartelaRequest struct {
	CartelaID int    `json:"cartelaId"`
	Pattern   string `json:"pattern"`
}

type endRequest struct {
	Reason string `json:"reason"`
}

// Create opens a pending session.
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	id, err := h.Engine.CreateSession(c.Request.Context(), req.ShopID, req.EmployeeID, req.EntryFee)
	if err != nil {
		respondError(c, err)
		return
	}
	snap, err := h.Engine.Session(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sessionId": id, "session": snap})
}

func (h *SessionHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.Engine.Sessions())
}

func (h *SessionHandler) Get(c *gin.Context) {
	snap, err := h.Engine.Session(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *SessionHandler) UpdateEntryFee(c *gin.Context) {
	var req entryFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.Engine.UpdateEntryFee(c.Param("id"), req.EntryFee); err != nil {
		respondError(c, err)
		return
	}
	h.Get(c)
}

// RegisterPlayer books a cartela for the session.
func (h *SessionHandler) RegisterPlayer(c *gin.Context) {
	var req registerPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	b, err := h.Engine.RegisterPlayer(c.Param("id"), req.CartelaID, req.EntryFee, req.PlayerLabel)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *SessionHandler) Start(c *gin.Context) {
	h.transition(c, h.Engine.StartSession)
}

func (h *SessionHandler) Pause(c *gin.Context) {
	h.transition(c, h.Engine.PauseSession)
}

func (h *SessionHandler) Resume(c *gin.Context) {
	h.transition(c, h.Engine.ResumeSession)
}

func (h *SessionHandler) transition(c *gin.Context, op func(string) error) {
	if err := op(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.Get(c)
}

// CallNext draws one number manually.
func (h *SessionHandler) CallNext(c *gin.Context) {
	res, err := h.Engine.CallNextNumber(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	body := gin.H{
		"completed":     res.Completed,
		"calledNumbers": res.CalledNumbers,
	}
	if res.Completed {
		body["profitRecord"] = res.ProfitRecord
	} else {
		body["number"] = res.Number
		body["announcement"] = game.Announce(res.Number)
	}
	c.JSON(http.StatusOK, body)
}

// CheckWinner pauses the session and verifies a claimed cartela.
func (h *SessionHandler) CheckWinner(c *gin.Context) {
	var req cartelaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	v, err := h.Engine.CheckWinner(c.Param("id"), req.CartelaID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *SessionHandler) AcceptWinner(c *gin.Context) {
	var req cartelaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := h.Engine.AcceptWinner(c.Param("id"), req.CartelaID, req.Pattern)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// End force-completes the session without a winner. An empty body is allowed.
func (h *SessionHandler) End(c *gin.Context) {
	var req endRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}
	p, err := h.Engine.ForceEnd(c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
