package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/server/access"
	"github.com/dmitrijs2005/babypal/internal/server/audit"
	"github.com/dmitrijs2005/babypal/internal/server/auth"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/repomanager"
)

// Admin panel actions recorded in the audit log.
const (
	ActionUpdateUserRole                = "UPDATE_USER_ROLE"
	ActionUpdateLockStatus              = "UPDATE_LOCK_STATUS"
	ActionUpdateExpiryStatus            = "UPDATE_EXPIRY_STATUS"
	ActionUpdateEnabledStatus           = "UPDATE_ENABLED_STATUS"
	ActionUpdateCredentialsExpiryStatus = "UPDATE_CREDENTIALS_EXPIRY_STATUS"
	ActionUpdatePassword                = "UPDATE_PASSWORD"
	ActionUpdateAccountExpiryDate       = "UPDATE_ACCOUNT_EXPIRY_DATE"
	ActionUpdateCredentialsExpiryDate   = "UPDATE_CREDENTIALS_EXPIRY_DATE"
	ActionUpdateEmail                   = "UPDATE_EMAIL"
)

// AdminService manages user accounts and exposes the audit log. Every
// method requires Admin.manage.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	access      *access.Evaluator
	audit       *audit.Recorder
	bcryptCost  int
}

func NewAdminService(db *sql.DB, rm repomanager.RepositoryManager, eval *access.Evaluator, rec *audit.Recorder, bcryptCost int) *AdminService {
	return &AdminService{db: db, repomanager: rm, access: eval, audit: rec, bcryptCost: bcryptCost}
}

func (s *AdminService) authorize(actor access.Actor) error {
	return s.access.Authorize(actor, access.Admin, access.Manage, access.Subject{})
}

func (s *AdminService) ListUsers(ctx context.Context, actor access.Actor) ([]*models.User, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return users, nil
}

func (s *AdminService) GetUser(ctx context.Context, actor access.Actor, userID int64) (*models.User, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "User not found")
	}
	return u, nil
}

func (s *AdminService) Roles(actor access.Actor) ([]models.Role, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	return models.Roles, nil
}

// mutateUser loads the target user, applies fn, saves it and records action.
func (s *AdminService) mutateUser(ctx context.Context, actor access.Actor, userID int64, action string, fn func(u *models.User) error) error {
	if err := s.authorize(actor); err != nil {
		return err
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		return notFoundAs(err, "User not found")
	}
	if err := fn(u); err != nil {
		return err
	}
	if err := repo.Update(ctx, u); err != nil {
		return classify(err)
	}

	s.audit.Track(ctx, audit.AdminAction(actor.Username, action, userID))
	return nil
}

func (s *AdminService) UpdateRole(ctx context.Context, actor access.Actor, userID int64, roleName string) error {
	role, ok := models.ParseRole(roleName)
	if !ok {
		return common.Validation("Role not found")
	}
	return s.mutateUser(ctx, actor, userID, ActionUpdateUserRole, func(u *models.User) error {
		u.Role = role
		return nil
	})
}

func (s *AdminService) UpdateLockStatus(ctx context.Context, actor access.Actor, userID int64, lock bool) error {
	return s.mutateUser(ctx, actor, userID, ActionUpdateLockStatus, func(u *models.User) error {
		u.AccountNonLocked = !lock
		return nil
	})
}

func (s *AdminService) UpdateAccountExpiryStatus(ctx context.Context, actor access.Actor, userID int64, expire bool) error {
	return s.mutateUser(ctx, actor, userID, ActionUpdateExpiryStatus, func(u *models.User) error {
		u.AccountNonExpired = !expire
		return nil
	})
}

func (s *AdminService) UpdateEnabledStatus(ctx context.Context, actor access.Actor, userID int64, enabled bool) error {
	return s.mutateUser(ctx, actor, userID, ActionUpdateEnabledStatus, func(u *models.User) error {
		u.Enabled = enabled
		return nil
	})
}

func (s *AdminService) UpdateCredentialsExpiryStatus(ctx context.Context, actor access.Actor, userID int64, expire bool) error {
	return s.mutateUser(ctx, actor, userID, ActionUpdateCredentialsExpiryStatus, func(u *models.User) error {
		u.CredentialsNonExpired = !expire
		return nil
	})
}

func (s *AdminService) UpdatePassword(ctx context.Context, actor access.Actor, userID int64, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	return s.mutateUser(ctx, actor, userID, ActionUpdatePassword, func(u *models.User) error {
		hash, err := auth.HashPassword(password, s.bcryptCost)
		if err != nil {
			return classify(err)
		}
		u.PasswordHash = hash
		return nil
	})
}

func (s *AdminService) UpdateAccountExpiryDate(ctx context.Context, actor access.Actor, userID int64, date time.Time) error {
	return s.mutateUser(ctx, actor, userID, ActionUpdateAccountExpiryDate, func(u *models.User) error {
		u.AccountExpiryDate = &date
		return nil
	})
}

func (s *AdminService) UpdateCredentialsExpiryDate(ctx context.Context, actor access.Actor, userID int64, date time.Time) error {
	return s.mutateUser(ctx, actor, userID, ActionUpdateCredentialsExpiryDate, func(u *models.User) error {
		u.CredentialsExpiryDate = &date
		return nil
	})
}

// UpdateEmail validates the format and rejects an address held by another
// account.
func (s *AdminService) UpdateEmail(ctx context.Context, actor access.Actor, userID int64, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	return s.mutateUser(ctx, actor, userID, ActionUpdateEmail, func(u *models.User) error {
		other, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
		switch {
		case err == nil && other.ID != u.ID:
			return common.Conflict("Email already exists")
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return classify(err)
		}
		u.Email = email
		return nil
	})
}

func (s *AdminService) Logs(ctx context.Context, actor access.Actor) ([]*models.Log, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	logs, err := s.audit.List(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return logs, nil
}

func (s *AdminService) Log(ctx context.Context, actor access.Actor, id int64) (*models.Log, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	l, err := s.audit.Get(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Log not found")
	}
	return l, nil
}

// ExportLogs writes the audit log to w as an xlsx workbook.
func (s *AdminService) ExportLogs(ctx context.Context, actor access.Actor, w io.Writer) error {
	if err := s.authorize(actor); err != nil {
		return err
	}
	return classify(s.audit.Export(ctx, w))
}
