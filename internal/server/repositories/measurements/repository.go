package measurements

import (
	"context"

	"github.com/dmitrijs2005/babypal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, m *models.Measurement) (*models.Measurement, error)
	GetByID(ctx context.Context, id int64) (*models.Measurement, error)
	ListByAuthor(ctx context.Context, author string) ([]*models.Measurement, error)
	ListByBaby(ctx context.Context, babyID int64) ([]*models.Measurement, error)
	ListAll(ctx context.Context) ([]*models.Measurement, error)
	Update(ctx context.Context, m *models.Measurement) error
	Delete(ctx context.Context, id int64) error
}
