// Package growthguides persists the reference milestone table seeded by
// migrations.
package growthguides

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

const columns = `id, month_range, age_description, physical_development, cognitive_social, motor_skills`

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.GrowthGuide, error) {
	g := &models.GrowthGuide{}
	err := row.Scan(&g.ID, &g.MonthRange, &g.AgeDescription, &g.PhysicalDevelopment, &g.CognitiveSocial, &g.MotorSkills)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.GrowthGuide, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM growth_guides ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.GrowthGuide{}
	for rows.Next() {
		g, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.GrowthGuide, error) {
	g, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM growth_guides WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound("Growth guide not found")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) Update(ctx context.Context, g *models.GrowthGuide) error {
	query :=
		`UPDATE growth_guides SET month_range = $2, age_description = $3,
		 physical_development = $4, cognitive_social = $5, motor_skills = $6
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		g.ID, g.MonthRange, g.AgeDescription, g.PhysicalDevelopment, g.CognitiveSocial, g.MotorSkills)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.NotFound("Growth guide not found")
	}
	return nil
}
