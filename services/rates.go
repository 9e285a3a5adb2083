package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShopRates resolves profit split fractions from the shops table. Shops
// without a row get the defaults.
type ShopRates struct {
	db       *gorm.DB
	defaults game.Rates
}

func NewShopRates(db *gorm.DB, defaults game.Rates) *ShopRates {
	return &ShopRates{db: db, defaults: defaults}
}

// Rates implements game.RateSource.
func (s *ShopRates) Rates(ctx context.Context, shopID string) (game.Rates, error) {
	var shop models.Shop
	err := s.db.WithContext(ctx).First(&shop, "id = ?", shopID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.defaults, nil
	}
	if err != nil {
		return game.Rates{}, err
	}

	r := game.Rates{
		ProfitMargin: shop.ProfitMargin,
		Commission:   shop.SuperAdminCommission,
		Referral:     shop.ReferralCommission,
	}
	if err := r.Validate(); err != nil {
		return game.Rates{}, fmt.Errorf("shop %s: %w", shopID, err)
	}
	return r, nil
}

// SaveShop creates or updates a shop's name and rates. The credit balance is
// left untouched on update.
func (s *ShopRates) SaveShop(ctx context.Context, shop *models.Shop) error {
	r := game.Rates{
		ProfitMargin: shop.ProfitMargin,
		Commission:   shop.SuperAdminCommission,
		Referral:     shop.ReferralCommission,
	}
	if err := r.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "profit_margin", "super_admin_commission", "referral_commission", "updated_at"}),
		}).
		Create(shop).Error
}

// Shop loads one shop row.
func (s *ShopRates) Shop(ctx context.Context, shopID string) (models.Shop, error) {
	var shop models.Shop
	err := s.db.WithContext(ctx).First(&shop, "id = ?", shopID).Error
	return shop, err
}
