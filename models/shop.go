package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shop holds the profit split fractions applied to games run in it and the
// prepaid credit that commissions are drawn from.
type Shop struct {
	ID                   string           `gorm:"primaryKey;size:64" json:"id"`
	Name                 string           `json:"name"`
	ProfitMargin         decimal.Decimal  `gorm:"type:numeric(5,4)" json:"profit_margin"`
	SuperAdminCommission decimal.Decimal  `gorm:"type:numeric(5,4)" json:"super_admin_commission"`
	ReferralCommission   *decimal.Decimal `gorm:"type:numeric(5,4)" json:"referral_commission,omitempty"` // nil when the admin was not referred
	CreditBalance        decimal.Decimal  `gorm:"type:numeric(14,2)" json:"credit_balance"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}
