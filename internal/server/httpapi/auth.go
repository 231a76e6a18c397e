package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/server/services"
	"github.com/gin-gonic/gin"
)

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userInfoResponse struct {
	ID                    int64      `json:"id"`
	Username              string     `json:"username"`
	Email                 string     `json:"email"`
	AccountNonLocked      bool       `json:"accountNonLocked"`
	AccountNonExpired     bool       `json:"accountNonExpired"`
	CredentialsNonExpired bool       `json:"credentialsNonExpired"`
	Enabled               bool       `json:"enabled"`
	CredentialsExpiryDate *time.Time `json:"credentialsExpiryDate"`
	AccountExpiryDate     *time.Time `json:"accountExpiryDate"`
	TwoFactorEnabled      bool       `json:"isTwoFactorEnabled"`
	Roles                 []string   `json:"roles"`
}

func message(c *gin.Context, text string) {
	c.JSON(http.StatusOK, gin.H{"message": text})
}

func (h *handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}
	res, err := h.svc.Users.SignIn(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) signUp(c *gin.Context) {
	var req services.SignUpRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}
	if _, err := h.svc.Users.SignUp(c.Request.Context(), req); err != nil {
		h.writeError(c, err)
		return
	}
	message(c, "User registered successfully!")
}

// forgotPassword answers the same way whether or not the address is known.
func (h *handler) forgotPassword(c *gin.Context) {
	email, err := requiredParam(c, "email")
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.svc.Users.ForgotPassword(c.Request.Context(), email); err != nil && !errors.Is(err, common.ErrorNotFound) {
		h.writeError(c, err)
		return
	}
	message(c, "Password reset token generated and email sent if the email exists in our system.")
}

func (h *handler) resetPassword(c *gin.Context) {
	token, err := requiredParam(c, "token")
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.svc.Users.ResetPassword(c.Request.Context(), token, param(c, "newPassword")); err != nil {
		h.writeError(c, err)
		return
	}
	message(c, "Password has been reset successfully.")
}

func (h *handler) verifyTwoFactorLogin(c *gin.Context) {
	token, err := requiredParam(c, "jwtToken")
	if err != nil {
		h.writeError(c, err)
		return
	}
	code, err := requiredParam(c, "code")
	if err != nil {
		h.writeError(c, err)
		return
	}
	res, err := h.svc.Users.VerifyTwoFactorLogin(c.Request.Context(), token, code)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) signOut(c *gin.Context) {
	if err := h.svc.Users.SignOut(c.Request.Context(), session(c)); err != nil {
		h.writeError(c, err)
		return
	}
	message(c, "You've been signed out successfully")
}

func (h *handler) enableTwoFactor(c *gin.Context) {
	enrollment, err := h.svc.Users.EnableTwoFactor(c.Request.Context(), actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.String(http.StatusOK, enrollment.URL)
}

func (h *handler) disableTwoFactor(c *gin.Context) {
	if err := h.svc.Users.DisableTwoFactor(c.Request.Context(), actor(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.String(http.StatusOK, "2FA disabled")
}

func (h *handler) verifyTwoFactor(c *gin.Context) {
	code, err := requiredParam(c, "code")
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.svc.Users.VerifyTwoFactor(c.Request.Context(), actor(c), code); err != nil {
		h.writeError(c, err)
		return
	}
	c.String(http.StatusOK, "2FA Verified")
}

func (h *handler) twoFactorStatus(c *gin.Context) {
	enabled, err := h.svc.Users.TwoFactorStatus(c.Request.Context(), actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is2faEnabled": enabled})
}

func (h *handler) updateCredentials(c *gin.Context) {
	newEmail, err := requiredParam(c, "newEmail")
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.svc.Users.UpdateCredentials(c.Request.Context(), actor(c), newEmail, param(c, "newPassword")); err != nil {
		h.writeError(c, err)
		return
	}
	message(c, "Credentials updated successfully")
}

func (h *handler) currentUser(c *gin.Context) {
	u, err := h.svc.Users.CurrentUser(c.Request.Context(), actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userInfoResponse{
		ID:                    u.ID,
		Username:              u.UserName,
		Email:                 u.Email,
		AccountNonLocked:      u.AccountNonLocked,
		AccountNonExpired:     u.AccountNonExpired,
		CredentialsNonExpired: u.CredentialsNonExpired,
		Enabled:               u.Enabled,
		CredentialsExpiryDate: u.CredentialsExpiryDate,
		AccountExpiryDate:     u.AccountExpiryDate,
		TwoFactorEnabled:      u.TwoFactorEnabled,
		Roles:                 []string{string(u.Role)},
	})
}

func (h *handler) currentUsername(c *gin.Context) {
	c.String(http.StatusOK, actor(c).Username)
}

func (h *handler) userExists(c *gin.Context) {
	ok, err := h.svc.Users.UserExists(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": ok})
}
