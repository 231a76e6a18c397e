package resettokens

import (
	"context"

	"github.com/dmitrijs2005/babypal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.PasswordResetToken) (*models.PasswordResetToken, error)
	GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id int64) error
}
