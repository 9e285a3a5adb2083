package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	EntryFeeTransaction             TransactionType = "entry_fee"
	PrizePayoutTransaction          TransactionType = "prize_payout"
	AdminProfitTransaction          TransactionType = "admin_profit"
	SuperAdminCommissionTransaction TransactionType = "super_admin_commission"
	ReferralBonusTransaction        TransactionType = "referral_bonus"
)

type Transaction struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	IdempotencyKey string          `gorm:"uniqueIndex;size:128;not null" json:"-"`
	SessionID      string          `gorm:"index;size:64" json:"session_id"`
	ShopID         string          `gorm:"index;size:64" json:"shop_id"`
	EmployeeID     string          `gorm:"size:64" json:"employee_id"`
	CartelaID      *int            `json:"cartela_id,omitempty"`
	Type           TransactionType `gorm:"index;size:32" json:"type"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	Description    string          `json:"description"`
	CreatedAt      time.Time       `json:"created_at"`
}
