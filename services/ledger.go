package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedger implements game.Ledger on the transactions, games and
// settlements tables.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

// RecordEntryFee inserts the entry_fee row. A replay with the same key is a
// no-op.
func (l *GormLedger) RecordEntryFee(ctx context.Context, rec game.EntryFeeRecord) error {
	cartela := rec.CartelaID
	tx := models.Transaction{
		ID:             uuid.NewString(),
		IdempotencyKey: rec.Key(),
		SessionID:      rec.SessionID,
		ShopID:         rec.ShopID,
		EmployeeID:     rec.EmployeeID,
		CartelaID:      &cartela,
		Type:           models.EntryFeeTransaction,
		Amount:         rec.Amount.Decimal(),
		Description:    fmt.Sprintf("Entry fee for cartela %d (%s)", rec.CartelaID, rec.PlayerLabel),
		CreatedAt:      rec.At,
	}
	return l.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "idempotency_key"}}, DoNothing: true}).
		Create(&tx).Error
}

// RecordCompletion writes the payout rows, the game history row and the
// settlement marker in one transaction, and debits the shop's credit by the
// upward shares. A session already settled is skipped.
func (l *GormLedger) RecordCompletion(ctx context.Context, rec game.CompletionRecord) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Settlement{}).Where("session_id = ?", rec.Key()).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return nil
		}

		for _, t := range completionTransactions(rec) {
			if err := tx.Create(&t).Error; err != nil {
				return fmt.Errorf("insert %s: %w", t.Type, err)
			}
		}

		numbers, err := json.Marshal(rec.CalledNumbers)
		if err != nil {
			return err
		}
		p := rec.Profit
		history := models.Game{
			SessionID:            rec.SessionID,
			ShopID:               rec.ShopID,
			EmployeeID:           rec.EmployeeID,
			Status:               string(game.StatusCompleted),
			Reason:               rec.Reason,
			PlayerCount:          rec.PlayerCount,
			EntryFee:             rec.EntryFee.Decimal(),
			TotalCollected:       p.TotalCollected.Decimal(),
			PrizeAmount:          p.PrizeAmount.Decimal(),
			AdminProfit:          p.AdminProfit.Decimal(),
			SuperAdminCommission: p.SuperAdminCommission.Decimal(),
			WinnerCartelaID:      rec.WinnerCartelaID,
			WinningPattern:       rec.Pattern,
			NumbersJSON:          datatypes.JSON(numbers),
			StartedAt:            rec.StartedAt,
			CompletedAt:          rec.CompletedAt,
		}
		if p.ReferralBonus != nil {
			history.ReferralBonus = p.ReferralBonus.Decimal()
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("insert game history: %w", err)
		}

		upward := p.SuperAdminCommission
		if p.ReferralBonus != nil {
			upward += *p.ReferralBonus
		}
		if upward > 0 {
			if err := tx.Model(&models.Shop{}).
				Where("id = ?", rec.ShopID).
				Update("credit_balance", gorm.Expr("credit_balance - ?", upward.Decimal())).Error; err != nil {
				return fmt.Errorf("debit shop credit: %w", err)
			}
		}

		return tx.Create(&models.Settlement{SessionID: rec.Key(), ProcessedAt: time.Now().UTC()}).Error
	})
}

// History lists completed games of a shop, newest first. An empty shopID
// lists every shop.
func (l *GormLedger) History(ctx context.Context, shopID string, limit int) ([]models.Game, error) {
	q := l.db.WithContext(ctx).Order("completed_at desc")
	if shopID != "" {
		q = q.Where("shop_id = ?", shopID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var games []models.Game
	if err := q.Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

// Transactions lists every ledger row of a session in write order.
func (l *GormLedger) Transactions(ctx context.Context, sessionID string) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := l.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at asc").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func completionTransactions(rec game.CompletionRecord) []models.Transaction {
	p := rec.Profit
	row := func(kind models.TransactionType, amount game.Amount, cartela *int, desc string) models.Transaction {
		return models.Transaction{
			ID:             uuid.NewString(),
			IdempotencyKey: fmt.Sprintf("%s:%s", rec.Key(), kind),
			SessionID:      rec.SessionID,
			ShopID:         rec.ShopID,
			EmployeeID:     rec.EmployeeID,
			CartelaID:      cartela,
			Type:           kind,
			Amount:         amount.Decimal(),
			Description:    desc,
			CreatedAt:      rec.CompletedAt,
		}
	}

	var out []models.Transaction
	if rec.WinnerCartelaID != nil {
		out = append(out, row(models.PrizePayoutTransaction, p.PrizeAmount, rec.WinnerCartelaID,
			fmt.Sprintf("Prize payout for cartela %d (%s)", *rec.WinnerCartelaID, rec.Pattern)))
	}
	out = append(out,
		row(models.AdminProfitTransaction, p.AdminProfit, nil, "Admin profit"),
		row(models.SuperAdminCommissionTransaction, p.SuperAdminCommission, nil, "Super admin commission"),
	)
	if p.ReferralBonus != nil {
		out = append(out, row(models.ReferralBonusTransaction, *p.ReferralBonus, nil, "Referral bonus"))
	}
	return out
}
