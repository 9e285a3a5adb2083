package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Game is the history row written once when a session completes.
type Game struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	SessionID            string          `gorm:"uniqueIndex;size:64;not null" json:"session_id"`
	ShopID               string          `gorm:"index;size:64" json:"shop_id"`
	EmployeeID           string          `gorm:"index;size:64" json:"employee_id"`
	Status               string          `json:"status"` // completed
	Reason               string          `json:"reason"` // winner | exhausted | operator reason
	PlayerCount          int             `json:"player_count"`
	EntryFee             decimal.Decimal `gorm:"type:numeric(12,2)" json:"entry_fee"`
	TotalCollected       decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_collected"`
	PrizeAmount          decimal.Decimal `gorm:"type:numeric(12,2)" json:"prize_amount"`
	AdminProfit          decimal.Decimal `gorm:"type:numeric(12,2)" json:"admin_profit"`
	SuperAdminCommission decimal.Decimal `gorm:"type:numeric(12,2)" json:"super_admin_commission"`
	ReferralBonus        decimal.Decimal `gorm:"type:numeric(12,2)" json:"referral_bonus"`
	WinnerCartelaID      *int            `json:"winner_cartela_id"`
	WinningPattern       string          `json:"winning_pattern"`
	NumbersJSON          datatypes.JSON  `json:"called_numbers"` // called numbers in call order
	StartedAt            time.Time       `json:"started_at"`
	CompletedAt          time.Time       `json:"completed_at"`
	CreatedAt            time.Time       `json:"created_at"`
}
