package logs

import (
	"context"

	"github.com/dmitrijs2005/babypal/internal/server/models"
)

// Repository is append-only: logs are never updated or deleted.
type Repository interface {
	Create(ctx context.Context, l *models.Log) (*models.Log, error)
	List(ctx context.Context) ([]*models.Log, error)
	GetByID(ctx context.Context, id int64) (*models.Log, error)
}
