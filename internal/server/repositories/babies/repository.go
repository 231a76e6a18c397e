package babies

import (
	"context"

	"github.com/dmitrijs2005/babypal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, baby *models.Baby) (*models.Baby, error)
	GetByID(ctx context.Context, id int64) (*models.Baby, error)
	ListVisibleTo(ctx context.Context, username string) ([]*models.Baby, error)
	ListAll(ctx context.Context) ([]*models.Baby, error)
	Update(ctx context.Context, baby *models.Baby) error
	UpdatePhotoKey(ctx context.Context, id int64, key string) error
	Delete(ctx context.Context, id int64) error
}
