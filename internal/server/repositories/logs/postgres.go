package logs

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

const columns = `id, username, type, type_id, action, status_code, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Log, error) {
	l := &models.Log{}
	var typeID sql.NullInt64
	if err := row.Scan(&l.ID, &l.Username, &l.Type, &typeID, &l.Action, &l.StatusCode, &l.CreatedAt); err != nil {
		return nil, err
	}
	if typeID.Valid {
		v := typeID.Int64
		l.TypeID = &v
	}
	return l, nil
}

func (r *PostgresRepository) Create(ctx context.Context, l *models.Log) (*models.Log, error) {
	query :=
		`INSERT INTO logs (username, type, type_id, action, status_code)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, l.Username, l.Type, l.TypeID, l.Action, l.StatusCode).
		Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

// List returns every log row in insertion order.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Log, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM logs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Log{}
	for rows.Next() {
		l, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Log, error) {
	l, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM logs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound("Log not found")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}
