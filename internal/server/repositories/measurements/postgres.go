package measurements

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

const columns = `id, baby_id, author, time, weight, height, head_circumference, created_at, updated_at`

var errNotFound = common.NotFound("Measurement not found")

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Measurement, error) {
	m := &models.Measurement{}
	err := row.Scan(&m.ID, &m.BabyID, &m.Author, &m.Time, &m.Weight, &m.Height,
		&m.HeadCircumference, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Measurement) (*models.Measurement, error) {
	query :=
		`INSERT INTO measurements (baby_id, author, time, weight, height, head_circumference)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		m.BabyID, m.Author, m.Time, m.Weight, m.Height, m.HeadCircumference,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Measurement, error) {
	m, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM measurements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Measurement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Measurement{}
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ListByAuthor(ctx context.Context, author string) ([]*models.Measurement, error) {
	return r.list(ctx, `SELECT `+columns+` FROM measurements WHERE author = $1 ORDER BY time, id`, author)
}

func (r *PostgresRepository) ListByBaby(ctx context.Context, babyID int64) ([]*models.Measurement, error) {
	return r.list(ctx, `SELECT `+columns+` FROM measurements WHERE baby_id = $1 ORDER BY time, id`, babyID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Measurement, error) {
	return r.list(ctx, `SELECT `+columns+` FROM measurements ORDER BY id`)
}

func (r *PostgresRepository) Update(ctx context.Context, m *models.Measurement) error {
	query :=
		`UPDATE measurements SET time = $2, weight = $3, height = $4, head_circumference = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, m.ID, m.Time, m.Weight, m.Height, m.HeadCircumference).Scan(&m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM measurements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}
