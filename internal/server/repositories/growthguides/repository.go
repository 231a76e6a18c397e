package growthguides

import (
	"context"

	"github.com/dmitrijs2005/babypal/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.GrowthGuide, error)
	GetByID(ctx context.Context, id int64) (*models.GrowthGuide, error)
	Update(ctx context.Context, g *models.GrowthGuide) error
}
