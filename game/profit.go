package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Rates are the fractions used to split the money collected in one game.
type Rates struct {
	ProfitMargin decimal.Decimal  `json:"profitMargin"`       // house share of the total collected
	Commission   decimal.Decimal  `json:"commission"`         // super-admin share of the house profit
	Referral     *decimal.Decimal `json:"referral,omitempty"` // referrer share of the house profit; nil when the admin was not referred
}

// Validate checks every fraction is within [0, 1] and that the upward shares
// do not exceed the house profit they are drawn from.
func (r Rates) Validate() error {
	check := func(name string, f decimal.Decimal) error {
		if f.IsNegative() || f.GreaterThan(one) {
			return fmt.Errorf("%w: %s %s outside [0, 1]", ErrInvalidRate, name, f.String())
		}
		return nil
	}
	if err := check("profit margin", r.ProfitMargin); err != nil {
		return err
	}
	if err := check("commission", r.Commission); err != nil {
		return err
	}
	upward := r.Commission
	if r.Referral != nil {
		if err := check("referral", *r.Referral); err != nil {
			return err
		}
		upward = upward.Add(*r.Referral)
	}
	if upward.GreaterThan(one) {
		return fmt.Errorf("%w: commission and referral exceed the house profit", ErrInvalidRate)
	}
	return nil
}

// ProfitRecord is the split of one completed game.
type ProfitRecord struct {
	TotalCollected       Amount  `json:"totalCollected"`
	AdminProfit          Amount  `json:"adminProfit"`
	PrizeAmount          Amount  `json:"prizeAmount"`
	SuperAdminCommission Amount  `json:"superAdminCommission"`
	ReferralBonus        *Amount `json:"referralBonus,omitempty"`
	AdminNet             Amount  `json:"adminNet"` // what the admin keeps after the upward shares
}

// Distribute splits total according to the given fractions. referral is nil
// when the admin was not referred.
func Distribute(total Amount, margin, commission decimal.Decimal, referral *decimal.Decimal) (ProfitRecord, error) {
	if total < 0 {
		return ProfitRecord{}, fmt.Errorf("%w: total collected %s is negative", ErrInvalidAmount, total)
	}
	rates := Rates{ProfitMargin: margin, Commission: commission, Referral: referral}
	if err := rates.Validate(); err != nil {
		return ProfitRecord{}, err
	}
	return split(total, rates), nil
}

// split assumes validated inputs. The house profit is rounded half-up and the
// prize is whatever remains, so the two always sum to total.
func split(total Amount, r Rates) ProfitRecord {
	admin := total.applyRate(r.ProfitMargin)
	prize := total - admin

	rec := ProfitRecord{
		TotalCollected:       total,
		AdminProfit:          admin,
		PrizeAmount:          prize,
		SuperAdminCommission: admin.applyRate(r.Commission),
	}

	upward := rec.SuperAdminCommission
	if r.Referral != nil {
		bonus := admin.applyRate(*r.Referral)
		// both shares can round up on tiny profits
		if upward+bonus > admin {
			bonus = admin - upward
		}
		rec.ReferralBonus = &bonus
		upward += bonus
	}
	rec.AdminNet = admin - upward
	return rec
}
