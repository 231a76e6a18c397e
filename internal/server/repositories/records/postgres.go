package records

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

const columns = `id, baby_id, author, type, sub_type, note, start_time, end_time, created_at, updated_at`

var errNotFound = common.NotFound("Record not found")

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Record, error) {
	rec := &models.Record{}
	var end sql.NullTime
	err := row.Scan(&rec.ID, &rec.BabyID, &rec.Author, &rec.Type, &rec.SubType, &rec.Note,
		&rec.StartTime, &end, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if end.Valid {
		t := end.Time
		rec.EndTime = &t
	}
	return rec, nil
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.Record) (*models.Record, error) {
	query :=
		`INSERT INTO records (baby_id, author, type, sub_type, note, start_time, end_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		rec.BabyID, rec.Author, rec.Type, rec.SubType, rec.Note, rec.StartTime, rec.EndTime,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Record, error) {
	rec, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Record{}
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ListByAuthor(ctx context.Context, author string) ([]*models.Record, error) {
	return r.list(ctx, `SELECT `+columns+` FROM records WHERE author = $1 ORDER BY start_time, id`, author)
}

func (r *PostgresRepository) ListByBaby(ctx context.Context, babyID int64) ([]*models.Record, error) {
	return r.list(ctx, `SELECT `+columns+` FROM records WHERE baby_id = $1 ORDER BY start_time, id`, babyID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Record, error) {
	return r.list(ctx, `SELECT `+columns+` FROM records ORDER BY id`)
}

func (r *PostgresRepository) Update(ctx context.Context, rec *models.Record) error {
	query :=
		`UPDATE records SET type = $2, sub_type = $3, note = $4, start_time = $5, end_time = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		rec.ID, rec.Type, rec.SubType, rec.Note, rec.StartTime, rec.EndTime,
	).Scan(&rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
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
