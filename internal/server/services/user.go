package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/cryptox"
	"github.com/dmitrijs2005/babypal/internal/dbx"
	"github.com/dmitrijs2005/babypal/internal/server/access"
	"github.com/dmitrijs2005/babypal/internal/server/audit"
	"github.com/dmitrijs2005/babypal/internal/server/auth"
	"github.com/dmitrijs2005/babypal/internal/server/config"
	"github.com/dmitrijs2005/babypal/internal/server/mailer"
	"github.com/dmitrijs2005/babypal/internal/server/metrics"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/dmitrijs2005/babypal/internal/server/oauth"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/babypal/internal/server/revocation"
	"github.com/google/uuid"
)

// SignUpRequest carries the fields of a self-service registration.
type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResult is returned by a successful sign-in. When TwoFactorRequired
// is set, Token is a short-lived 2fa token to be exchanged together with a
// TOTP code through VerifyTwoFactorLogin.
type SignInResult struct {
	Username          string   `json:"username"`
	Roles             []string `json:"roles"`
	Token             string   `json:"jwtToken"`
	TwoFactorRequired bool     `json:"twoFactorRequired,omitempty"`
}

// Session is a validated access token.
type Session struct {
	Actor     access.Actor
	TokenID   string
	ExpiresAt time.Time
}

// UserService handles accounts, credentials and token issuance.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	audit       *audit.Recorder
	revoked     revocation.Store
	mailer      mailer.Sender
	metrics     *metrics.Metrics

	jwtSecret        []byte
	totpKey          []byte
	accessTTL        time.Duration
	twoFactorTTL     time.Duration
	passwordResetTTL time.Duration
	bcryptCost       int
	frontendURL      string

	now func() time.Time
}

// NewUserService constructs a UserService. m may be nil.
func NewUserService(db *sql.DB, rm repomanager.RepositoryManager, cfg *config.Config, rec *audit.Recorder,
	revoked revocation.Store, sender mailer.Sender, m *metrics.Metrics) *UserService {
	return &UserService{
		db:               db,
		repomanager:      rm,
		audit:            rec,
		revoked:          revoked,
		mailer:           sender,
		metrics:          m,
		jwtSecret:        []byte(cfg.SecretKey),
		totpKey:          cryptox.DeriveKey([]byte(cfg.SecretKey), []byte(totpKeySalt)),
		accessTTL:        cfg.AccessTokenValidityDuration,
		twoFactorTTL:     cfg.TwoFactorTokenValidityDuration,
		passwordResetTTL: cfg.PasswordResetValidityDuration,
		bcryptCost:       cfg.BcryptCost,
		frontendURL:      cfg.FrontendURL,
		now:              time.Now,
	}
}

// SignUp registers a ROLE_USER account with password sign-in.
func (s *UserService) SignUp(ctx context.Context, req SignUpRequest) (*models.User, error) {
	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	taken, err := repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, classify(err)
	}
	if taken {
		return nil, common.Conflict("Error: Username is already taken!")
	}
	taken, err = repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, classify(err)
	}
	if taken {
		return nil, common.Conflict("Error: Email is already in use!")
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, classify(err)
	}

	u, err := repo.Create(ctx, newUser(req.Username, req.Email, hash, models.SignUpEmail))
	if err != nil {
		return nil, classify(err)
	}

	s.audit.Track(ctx, audit.SignUp(u.UserName, u.ID))
	return u, nil
}

func newUser(username, email, passwordHash, method string) *models.User {
	credentialsExpiry, accountExpiry := signUpExpiry, signUpExpiry
	return &models.User{
		UserName:              username,
		Email:                 email,
		PasswordHash:          passwordHash,
		Role:                  models.RoleUser,
		AccountNonLocked:      true,
		AccountNonExpired:     true,
		CredentialsNonExpired: true,
		Enabled:               true,
		CredentialsExpiryDate: &credentialsExpiry,
		AccountExpiryDate:     &accountExpiry,
		SignUpMethod:          method,
	}
}

// checkAccountState applies the checks made before the password is looked
// at, in order: locked, disabled, account expired.
func checkAccountState(u *models.User, now time.Time) error {
	switch {
	case !u.AccountNonLocked:
		return common.ErrAccountLocked
	case !u.Enabled:
		return common.ErrAccountDisabled
	case u.AccountExpired(now):
		return common.ErrAccountExpired
	}
	return nil
}

// Authenticate verifies username and password. When the username matched
// an account the user is returned even on failure, so callers can log its id.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrBadCredentials
		}
		return nil, classify(err)
	}

	now := s.now()
	if err := checkAccountState(u, now); err != nil {
		return u, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return u, common.ErrBadCredentials
	}
	if u.CredentialsExpired(now) {
		return u, common.ErrCredentialsExpired
	}
	return u, nil
}

// SignIn authenticates and issues an access token, or a 2fa token when the
// account has two-factor authentication enabled.
func (s *UserService) SignIn(ctx context.Context, username, password string) (*SignInResult, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		s.countAuth("failure")
		if errors.Is(err, common.ErrorUnauthorized) {
			var userID *int64
			if u != nil {
				id := u.ID
				userID = &id
			}
			s.audit.Track(ctx, audit.SignInFailed(username, userID))
		}
		return nil, err
	}

	if u.TwoFactorEnabled {
		token, err := auth.GenerateToken(u.UserName, u.Role, auth.TwoFactorToken, s.jwtSecret, s.twoFactorTTL)
		if err != nil {
			return nil, classify(err)
		}
		s.countAuth("2fa_pending")
		return &SignInResult{
			Username:          u.UserName,
			Roles:             []string{string(u.Role)},
			Token:             token,
			TwoFactorRequired: true,
		}, nil
	}

	return s.issueAccessToken(ctx, u)
}

func (s *UserService) issueAccessToken(ctx context.Context, u *models.User) (*SignInResult, error) {
	token, err := auth.GenerateToken(u.UserName, u.Role, auth.AccessToken, s.jwtSecret, s.accessTTL)
	if err != nil {
		return nil, classify(err)
	}
	s.countAuth("success")
	s.audit.Track(ctx, audit.SignIn(u.UserName, u.ID))
	return &SignInResult{Username: u.UserName, Roles: []string{string(u.Role)}, Token: token}, nil
}

// VerifyTwoFactorLogin exchanges a 2fa token and a valid TOTP code for an
// access token. The 2fa token can be used once.
func (s *UserService) VerifyTwoFactorLogin(ctx context.Context, token, code string) (*SignInResult, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.Type != auth.TwoFactorToken {
		return nil, common.ErrInvalidToken
	}
	if err := s.checkRevoked(ctx, claims.ID); err != nil {
		return nil, err
	}

	u, err := s.userByUsername(ctx, claims.Username())
	if err != nil {
		return nil, err
	}
	if err := checkAccountState(u, s.now()); err != nil {
		return nil, err
	}
	if !u.TwoFactorEnabled {
		return nil, common.Err2FANotEnrolled
	}

	ok, err := s.verifyCode(u, code)
	if err != nil {
		return nil, err
	}
	s.audit.Track(ctx, audit.TwoFactorVerified(u.UserName, u.ID, ok))
	if !ok {
		s.countAuth("failure")
		return nil, common.ErrInvalid2FACode
	}

	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, classify(err)
	}
	return s.issueAccessToken(ctx, u)
}

// ValidateToken accepts only unrevoked access tokens of accounts that can
// still sign in. The role comes from the stored user, not the token.
func (s *UserService) ValidateToken(ctx context.Context, token string) (*Session, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.Type != auth.AccessToken {
		return nil, common.ErrInvalidToken
	}
	if err := s.checkRevoked(ctx, claims.ID); err != nil {
		return nil, err
	}
	u, err := s.repomanager.Users(s.db).GetByUsername(ctx, claims.Username())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, classify(err)
	}
	if err := checkAccountState(u, s.now()); err != nil {
		return nil, err
	}
	return &Session{
		Actor:     access.Actor{Username: u.UserName, Role: u.Role},
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *UserService) checkRevoked(ctx context.Context, jti string) error {
	revoked, err := s.revoked.IsRevoked(ctx, jti)
	if err != nil {
		return classify(err)
	}
	if revoked {
		return common.ErrTokenRevoked
	}
	return nil
}

// SignOut revokes the session's token until it would have expired.
func (s *UserService) SignOut(ctx context.Context, sess *Session) error {
	if err := s.revoked.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		return classify(err)
	}
	u, err := s.userByUsername(ctx, sess.Actor.Username)
	if err != nil {
		return err
	}
	s.audit.Track(ctx, audit.SignOut(u.UserName, u.ID))
	return nil
}

func (s *UserService) userByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return nil, notFoundAs(err, "User not found")
	}
	return u, nil
}

func (s *UserService) CurrentUser(ctx context.Context, actor access.Actor) (*models.User, error) {
	return s.userByUsername(ctx, actor.Username)
}

func (s *UserService) UserExists(ctx context.Context, username string) (bool, error) {
	ok, err := s.repomanager.Users(s.db).ExistsByUsername(ctx, username)
	if err != nil {
		return false, classify(err)
	}
	return ok, nil
}

// ForgotPassword stores a single-use reset token and mails a link to it.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return notFoundAs(err, "User not found")
	}

	t := &models.PasswordResetToken{
		Token:      uuid.NewString(),
		UserID:     u.ID,
		ExpiryDate: s.now().Add(s.passwordResetTTL),
	}
	if _, err := s.repomanager.ResetTokens(s.db).Create(ctx, t); err != nil {
		return classify(err)
	}

	resetURL := strings.TrimRight(s.frontendURL, "/") + "/reset-password?token=" + url.QueryEscape(t.Token)
	if err := s.mailer.SendPasswordReset(ctx, u.Email, resetURL); err != nil {
		return classify(err)
	}
	return nil
}

// ResetPassword redeems a reset token. The token is valid up to and
// including its expiry instant. The new password and the used flag are
// written in one transaction.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	t, err := s.repomanager.ResetTokens(s.db).GetByToken(ctx, token)
	if err != nil {
		return classify(err)
	}
	if t.Used {
		return common.ErrResetTokenUsed
	}
	if t.Expired(s.now()) {
		return common.ErrResetTokenExpired
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return classify(err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		u, err := users.GetByID(ctx, t.UserID)
		if err != nil {
			return notFoundAs(err, "User not found")
		}
		u.PasswordHash = hash
		if err := users.Update(ctx, u); err != nil {
			return classify(err)
		}
		return classify(s.repomanager.ResetTokens(tx).MarkUsed(ctx, t.ID))
	})
}

// UpdateCredentials replaces the actor's email and password and pushes the
// credentials expiry one year out.
func (s *UserService) UpdateCredentials(ctx context.Context, actor access.Actor, newEmail, newPassword string) error {
	if err := validateEmail(newEmail); err != nil {
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	u, err := s.userByUsername(ctx, actor.Username)
	if err != nil {
		return err
	}

	other, err := s.repomanager.Users(s.db).GetByEmail(ctx, newEmail)
	switch {
	case err == nil && other.ID != u.ID:
		return common.Conflict("Email is already in use by another user")
	case err != nil && !errors.Is(err, common.ErrorNotFound):
		return classify(err)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return classify(err)
	}

	expiry := s.now().AddDate(1, 0, 0)
	u.Email = newEmail
	u.PasswordHash = hash
	u.CredentialsExpiryDate = &expiry

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return classify(s.repomanager.Users(tx).Update(ctx, u))
	}); err != nil {
		return err
	}

	s.audit.Track(ctx, audit.CredentialsUpdated(u.UserName, u.ID))
	return nil
}

// totpKeySalt separates the TOTP sealing key from other uses of SecretKey.
const totpKeySalt = "babypal-totp-secret"

// verifyCode checks code against the user's sealed TOTP secret.
func (s *UserService) verifyCode(u *models.User, code string) (bool, error) {
	secret, err := cryptox.Open(u.TwoFactorSecret, s.totpKey)
	if err != nil {
		return false, fmt.Errorf("%w: cannot open 2FA secret: %v", common.ErrorInternal, err)
	}
	return auth.VerifyCode(secret, code, s.now()), nil
}

// EnableTwoFactor stores a fresh TOTP secret. The flag stays off until
// VerifyTwoFactor confirms a code.
func (s *UserService) EnableTwoFactor(ctx context.Context, actor access.Actor) (*auth.Enrollment, error) {
	u, err := s.userByUsername(ctx, actor.Username)
	if err != nil {
		return nil, err
	}
	enrollment, err := auth.NewEnrollment(common.AppName, u.UserName)
	if err != nil {
		return nil, classify(err)
	}
	sealed, err := cryptox.Seal(enrollment.Secret, s.totpKey)
	if err != nil {
		return nil, classify(err)
	}
	u.TwoFactorSecret = sealed
	u.TwoFactorEnabled = false
	if err := s.repomanager.Users(s.db).Update(ctx, u); err != nil {
		return nil, classify(err)
	}
	return enrollment, nil
}

// VerifyTwoFactor turns two-factor authentication on once code matches the
// stored secret.
func (s *UserService) VerifyTwoFactor(ctx context.Context, actor access.Actor, code string) error {
	u, err := s.userByUsername(ctx, actor.Username)
	if err != nil {
		return err
	}
	if u.TwoFactorSecret == "" {
		return common.Err2FANotEnrolled
	}

	ok, err := s.verifyCode(u, code)
	if err != nil {
		return err
	}
	s.audit.Track(ctx, audit.TwoFactorVerified(u.UserName, u.ID, ok))
	if !ok {
		return common.ErrInvalid2FACode
	}

	u.TwoFactorEnabled = true
	if err := s.repomanager.Users(s.db).Update(ctx, u); err != nil {
		return classify(err)
	}
	s.audit.Track(ctx, audit.TwoFactorEnabled(u.UserName, u.ID))
	return nil
}

func (s *UserService) DisableTwoFactor(ctx context.Context, actor access.Actor) error {
	u, err := s.userByUsername(ctx, actor.Username)
	if err != nil {
		return err
	}
	u.TwoFactorEnabled = false
	u.TwoFactorSecret = ""
	if err := s.repomanager.Users(s.db).Update(ctx, u); err != nil {
		return classify(err)
	}
	s.audit.Track(ctx, audit.TwoFactorDisabled(u.UserName, u.ID))
	return nil
}

func (s *UserService) TwoFactorStatus(ctx context.Context, actor access.Actor) (bool, error) {
	u, err := s.userByUsername(ctx, actor.Username)
	if err != nil {
		return false, err
	}
	return u.TwoFactorEnabled, nil
}

// OAuthLogin signs in the account matching the provider profile's email,
// creating a ROLE_USER account on first login.
func (s *UserService) OAuthLogin(ctx context.Context, p *oauth.Profile) (*SignInResult, error) {
	repo := s.repomanager.Users(s.db)

	u, err := repo.GetByEmail(ctx, p.Email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		name, err := s.freeUsername(ctx, p.Username())
		if err != nil {
			return nil, err
		}
		u, err = repo.Create(ctx, newUser(name, p.Email, "", p.Provider))
		if err != nil {
			return nil, classify(err)
		}
		s.audit.Track(ctx, audit.SignUp(u.UserName, u.ID))
	case err != nil:
		return nil, classify(err)
	}

	if err := checkAccountState(u, s.now()); err != nil {
		s.countAuth("failure")
		return nil, err
	}
	return s.issueAccessToken(ctx, u)
}

// maxUsernameSuffix bounds the search for a free username on OAuth2 signup.
const maxUsernameSuffix = 100

// freeUsername returns base, or base followed by the smallest number from 2
// up that no account uses yet.
func (s *UserService) freeUsername(ctx context.Context, base string) (string, error) {
	repo := s.repomanager.Users(s.db)
	for i := 1; i <= maxUsernameSuffix; i++ {
		name := base
		if i > 1 {
			name = base + strconv.Itoa(i)
		}
		taken, err := repo.ExistsByUsername(ctx, name)
		if err != nil {
			return "", classify(err)
		}
		if !taken {
			return name, nil
		}
	}
	return "", common.Conflict(fmt.Sprintf("No free username left for %s", base))
}

func (s *UserService) countAuth(outcome string) {
	if s.metrics != nil {
		s.metrics.AuthAttemptsTotal.WithLabelValues(outcome).Inc()
	}
}
