package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/server/access"
	"github.com/gin-gonic/gin"
)

const (
	dateLayout = "2006-01-02"
	xlsxMIME   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (h *handler) adminListUsers(c *gin.Context) {
	users, err := h.svc.Admin.ListUsers(c.Request.Context(), actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *handler) adminGetUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	u, err := h.svc.Admin.GetUser(c.Request.Context(), actor(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *handler) adminRoles(c *gin.Context) {
	roles, err := h.svc.Admin.Roles(actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

// userUpdate runs fn against the userId parameter and answers with done.
func (h *handler) userUpdate(c *gin.Context, done string, fn func(ctx context.Context, a access.Actor, userID int64) error) {
	userID, err := int64Param(c, "userId")
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := fn(c.Request.Context(), actor(c), userID); err != nil {
		h.writeError(c, err)
		return
	}
	c.String(http.StatusOK, done)
}

// flagUpdate is userUpdate for the boolean status endpoints.
func (h *handler) flagUpdate(c *gin.Context, name, done string, fn func(ctx context.Context, a access.Actor, userID int64, v bool) error) {
	v, err := boolParam(c, name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.userUpdate(c, done, func(ctx context.Context, a access.Actor, userID int64) error {
		return fn(ctx, a, userID, v)
	})
}

func (h *handler) adminUpdateRole(c *gin.Context) {
	roleName, err := requiredParam(c, "roleName")
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.userUpdate(c, "User role updated", func(ctx context.Context, a access.Actor, userID int64) error {
		return h.svc.Admin.UpdateRole(ctx, a, userID, roleName)
	})
}

func (h *handler) adminUpdateLockStatus(c *gin.Context) {
	h.flagUpdate(c, "lock", "Account lock status updated", h.svc.Admin.UpdateLockStatus)
}

func (h *handler) adminUpdateExpiryStatus(c *gin.Context) {
	h.flagUpdate(c, "expire", "Account expiry status updated", h.svc.Admin.UpdateAccountExpiryStatus)
}

func (h *handler) adminUpdateEnabledStatus(c *gin.Context) {
	h.flagUpdate(c, "enabled", "Account enabled status updated", h.svc.Admin.UpdateEnabledStatus)
}

func (h *handler) adminUpdateCredentialsExpiryStatus(c *gin.Context) {
	h.flagUpdate(c, "expire", "Credentials expiry status updated", h.svc.Admin.UpdateCredentialsExpiryStatus)
}

func (h *handler) adminUpdatePassword(c *gin.Context) {
	password := param(c, "password")
	h.userUpdate(c, "Password updated", func(ctx context.Context, a access.Actor, userID int64) error {
		return h.svc.Admin.UpdatePassword(ctx, a, userID, password)
	})
}

// dateUpdate parses expiryDate as YYYY-MM-DD. A bad date and an unknown user
// share one answer.
func (h *handler) dateUpdate(c *gin.Context, done string, fn func(ctx context.Context, a access.Actor, userID int64, d time.Time) error) {
	invalid := badRequest("Invalid date format or user not found")

	date, err := time.Parse(dateLayout, param(c, "expiryDate"))
	if err != nil {
		h.writeError(c, invalid)
		return
	}
	h.userUpdate(c, done, func(ctx context.Context, a access.Actor, userID int64) error {
		err := fn(ctx, a, userID, date)
		if errors.Is(err, common.ErrorNotFound) {
			return invalid
		}
		return err
	})
}

func (h *handler) adminUpdateAccountExpiryDate(c *gin.Context) {
	h.dateUpdate(c, "Account expiry date updated", h.svc.Admin.UpdateAccountExpiryDate)
}

func (h *handler) adminUpdateCredentialsExpiryDate(c *gin.Context) {
	h.dateUpdate(c, "Credentials expiry date updated", h.svc.Admin.UpdateCredentialsExpiryDate)
}

func (h *handler) adminUpdateEmail(c *gin.Context) {
	email := param(c, "email")
	h.userUpdate(c, "Email address updated", func(ctx context.Context, a access.Actor, userID int64) error {
		return h.svc.Admin.UpdateEmail(ctx, a, userID, email)
	})
}

func (h *handler) adminListBabies(c *gin.Context) {
	out, err := h.svc.Babies.ListAll(c.Request.Context(), actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) adminListMeasurements(c *gin.Context) {
	out, err := h.svc.Measurements.ListAll(c.Request.Context(), actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) adminListRecords(c *gin.Context) {
	out, err := h.svc.Records.ListAll(c.Request.Context(), actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) adminListLogs(c *gin.Context) {
	logs, err := h.svc.Admin.Logs(c.Request.Context(), actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *handler) adminGetLog(c *gin.Context) {
	id, err := pathID(c, "logId")
	if err != nil {
		h.writeError(c, err)
		return
	}
	l, err := h.svc.Admin.Log(c.Request.Context(), actor(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// adminExportLogs buffers the workbook so a failure can still produce a JSON
// error instead of a truncated download.
func (h *handler) adminExportLogs(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.Admin.ExportLogs(c.Request.Context(), actor(c), &buf); err != nil {
		h.writeError(c, err)
		return
	}
	filename := fmt.Sprintf("logs_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}
