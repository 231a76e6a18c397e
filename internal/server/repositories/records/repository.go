package records

import (
	"context"

	"github.com/dmitrijs2005/babypal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, r *models.Record) (*models.Record, error)
	GetByID(ctx context.Context, id int64) (*models.Record, error)
	ListByAuthor(ctx context.Context, author string) ([]*models.Record, error)
	ListByBaby(ctx context.Context, babyID int64) ([]*models.Record, error)
	ListAll(ctx context.Context) ([]*models.Record, error)
	Update(ctx context.Context, r *models.Record) error
	Delete(ctx context.Context, id int64) error
}
