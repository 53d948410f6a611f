package mysql

import (
	"context"

	savingsDomain "p2p-lending-backend/internal/domain/savings"

	"gorm.io/gorm"
)

type SavingsRepository struct{ db *gorm.DB }

func NewSavingsRepository(db *gorm.DB) *SavingsRepository { return &SavingsRepository{db: db} }

func (r *SavingsRepository) Create(ctx context.Context, a *savingsDomain.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *SavingsRepository) Save(ctx context.Context, a *savingsDomain.Account) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *SavingsRepository) GetByAccountID(ctx context.Context, accountID string) (*savingsDomain.Account, error) {
	var out savingsDomain.Account
	res := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&out)
	return &out, res.Error
}

func (r *SavingsRepository) GetByAccountIDForUpdate(ctx context.Context, accountID string) (*savingsDomain.Account, error) {
	var out savingsDomain.Account
	res := lockForUpdate(r.db.WithContext(ctx)).
		Where("account_id = ?", accountID).
		First(&out)
	return &out, res.Error
}
