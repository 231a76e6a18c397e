// Package users persists user accounts.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

const columns = `id, username, email, password, role, account_non_locked, account_non_expired,
		 credentials_non_expired, enabled, credentials_expiry_date, account_expiry_date,
		 two_factor_secret, is_two_factor_enabled, sign_up_method, created_date, updated_date`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	var password, secret sql.NullString
	var credExpiry, accExpiry sql.NullTime

	err := row.Scan(&u.ID, &u.UserName, &u.Email, &password, &u.Role, &u.AccountNonLocked,
		&u.AccountNonExpired, &u.CredentialsNonExpired, &u.Enabled, &credExpiry, &accExpiry,
		&secret, &u.TwoFactorEnabled, &u.SignUpMethod, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	u.PasswordHash = password.String
	u.TwoFactorSecret = secret.String
	u.CredentialsExpiryDate = timePtr(credExpiry)
	u.AccountExpiryDate = timePtr(accExpiry)
	return u, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, email, password, role, account_non_locked, account_non_expired,
		 credentials_non_expired, enabled, credentials_expiry_date, account_expiry_date,
		 two_factor_secret, is_two_factor_enabled, sign_up_method)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_date, updated_date`

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Email, nullString(user.PasswordHash), user.Role, user.AccountNonLocked,
		user.AccountNonExpired, user.CredentialsNonExpired, user.Enabled, user.CredentialsExpiryDate,
		user.AccountExpiryDate, nullString(user.TwoFactorSecret), user.TwoFactorEnabled, user.SignUpMethod,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.Conflict("username or email already in use")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + columns + ` FROM users WHERE ` + where

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `username = $1`, username)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `email = $1`, email)
}

func (r *PostgresRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// Update writes every mutable column of user.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET email = $2, password = $3, role = $4, account_non_locked = $5,
		 account_non_expired = $6, credentials_non_expired = $7, enabled = $8,
		 credentials_expiry_date = $9, account_expiry_date = $10, two_factor_secret = $11,
		 is_two_factor_enabled = $12, sign_up_method = $13, updated_date = now()
		 WHERE id = $1
		 RETURNING updated_date`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, nullString(user.PasswordHash), user.Role, user.AccountNonLocked,
		user.AccountNonExpired, user.CredentialsNonExpired, user.Enabled, user.CredentialsExpiryDate,
		user.AccountExpiryDate, nullString(user.TwoFactorSecret), user.TwoFactorEnabled, user.SignUpMethod,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		if dbx.IsUniqueViolation(err) {
			return common.Conflict("Email is already in use")
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
