package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bellapacxx/bingo-engine/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type HistoryStore interface {
	History(ctx context.Context, shopID string, limit int) ([]models.Game, error)
	Transactions(ctx context.Context, sessionID string) ([]models.Transaction, error)
}

type ShopStore interface {
	Shop(ctx context.Context, shopID string) (models.Shop, error)
	SaveShop(ctx context.Context, shop *models.Shop) error
}

// LedgerHandler serves the persisted side: game history, ledger rows and shop
// rates.
type LedgerHandler struct {
	History HistoryStore
	Shops   ShopStore
}

// ListGames returns completed games, optionally for one shop.
func (h *LedgerHandler) ListGames(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	games, err := h.History.History(c.Request.Context(), c.Query("shopId"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch games", "code": "internal"})
		return
	}
	c.JSON(http.StatusOK, games)
}

func (h *LedgerHandler) SessionTransactions(c *gin.Context) {
	txs, err := h.History.Transactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions", "code": "internal"})
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (h *LedgerHandler) GetShop(c *gin.Context) {
	shop, err := h.Shops.Shop(c.Request.Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shop not found", "code": "shop_not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shop", "code": "internal"})
		return
	}
	c.JSON(http.StatusOK, shop)
}

type shopRequest struct {
	Name                 string           `json:"name"`
	ProfitMargin         decimal.Decimal  `json:"profitMargin"`
	SuperAdminCommission decimal.Decimal  `json:"superAdminCommission"`
	ReferralCommission   *decimal.Decimal `json:"referralCommission"`
}

// PutShop creates or updates the rates applied to new sessions of a shop.
func (h *LedgerHandler) PutShop(c *gin.Context) {
	var req shopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	now := time.Now()
	shop := models.Shop{
		ID:                   c.Param("id"),
		Name:                 req.Name,
		ProfitMargin:         req.ProfitMargin,
		SuperAdminCommission: req.SuperAdminCommission,
		ReferralCommission:   req.ReferralCommission,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := h.Shops.SaveShop(c.Request.Context(), &shop); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}
