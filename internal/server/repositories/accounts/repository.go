package accounts

import (
	"context"

	"github.com/dmitrijs2005/booksummary/internal/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Account) error
	ByEmail(ctx context.Context, email string) (*models.Account, error)
	ByID(ctx context.Context, id string) (*models.Account, error)
	UpdateDisplayName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	SavePasswordReset(ctx context.Context, p *models.PasswordReset) error
}

var _ Repository = (*PostgresRepository)(nil)
