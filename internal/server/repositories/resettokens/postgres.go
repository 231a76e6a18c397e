package resettokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/dbx"
	"github.com/dmitrijs2005/babypal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var errInvalid = common.Validation("Invalid password reset token")

func (r *PostgresRepository) Create(ctx context.Context, t *models.PasswordResetToken) (*models.PasswordResetToken, error) {
	query :=
		`INSERT INTO password_reset_tokens (token, user_id, expiry_date)
		 VALUES ($1, $2, $3)
		 RETURNING id`

	if err := r.db.QueryRowContext(ctx, query, t.Token, t.UserID, t.ExpiryDate).Scan(&t.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// GetByToken looks a token up by its value. Unknown tokens are a
// validation error, not a not-found.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	query := `SELECT id, token, user_id, expiry_date, used FROM password_reset_tokens WHERE token = $1`

	t := &models.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiryDate, &t.Used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errInvalid
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE password_reset_tokens SET used = TRUE WHERE id = $1 AND used = FALSE`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrResetTokenUsed
	}
	return nil
}
