package savings

import "context"

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByAccountID(ctx context.Context, accountID string) (*Account, error)
	GetByAccountIDForUpdate(ctx context.Context, accountID string) (*Account, error)
	Save(ctx context.Context, a *Account) error
}
