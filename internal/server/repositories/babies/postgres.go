// Package babies persists baby profiles. Caregivers are stored as a JSONB
// array of usernames.
package babies

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

const columns = `id, name, gender, date_of_birth, weight, height, head_circumference,
		 caregivers, owner, photo_key, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBaby(row scanner) (*models.Baby, error) {
	b := &models.Baby{}
	var gender sql.NullString
	err := row.Scan(&b.ID, &b.Name, &gender, &b.DateOfBirth, &b.Weight, &b.Height,
		&b.HeadCircumference, &b.Caregivers, &b.Owner, &b.PhotoKey, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Gender = gender.String
	return b, nil
}

func (r *PostgresRepository) Create(ctx context.Context, baby *models.Baby) (*models.Baby, error) {
	query :=
		`INSERT INTO babies (name, gender, date_of_birth, weight, height, head_circumference, caregivers, owner)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		baby.Name, baby.Gender, baby.DateOfBirth, baby.Weight, baby.Height, baby.HeadCircumference,
		baby.Caregivers, baby.Owner,
	).Scan(&baby.ID, &baby.CreatedAt, &baby.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return baby, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Baby, error) {
	query := `SELECT ` + columns + ` FROM babies WHERE id = $1`

	b, err := scanBaby(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound("Baby not found")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Baby, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Baby{}
	for rows.Next() {
		b, err := scanBaby(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// ListVisibleTo returns the babies username owns or cares for.
func (r *PostgresRepository) ListVisibleTo(ctx context.Context, username string) ([]*models.Baby, error) {
	return r.list(ctx,
		`SELECT `+columns+` FROM babies
		 WHERE owner = $1 OR caregivers @> jsonb_build_array($1::text)
		 ORDER BY id`, username)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Baby, error) {
	return r.list(ctx, `SELECT `+columns+` FROM babies ORDER BY id`)
}

func (r *PostgresRepository) Update(ctx context.Context, baby *models.Baby) error {
	query :=
		`UPDATE babies SET name = $2, gender = $3, date_of_birth = $4, weight = $5, height = $6,
		 head_circumference = $7, caregivers = $8, owner = $9, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		baby.ID, baby.Name, baby.Gender, baby.DateOfBirth, baby.Weight, baby.Height,
		baby.HeadCircumference, baby.Caregivers, baby.Owner,
	).Scan(&baby.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.NotFound("Baby not found")
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdatePhotoKey(ctx context.Context, id int64, key string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE babies SET photo_key = $2, updated_at = now() WHERE id = $1`, id, key)
	return affectedOne(res, err)
}

// Delete removes the baby; measurements and records go with it through
// ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM babies WHERE id = $1`, id)
	return affectedOne(res, err)
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.NotFound("Baby not found")
	}
	return nil
}
