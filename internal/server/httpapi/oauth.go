package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	oauthStateCookie = "oauth2_state"
	oauthStateMaxAge = 600
)

func (h *handler) oauthStart(c *gin.Context) {
	if h.opts.OAuth == nil {
		h.writeError(c, common.NotFound("OAuth2 login is not configured"))
		return
	}

	state, err := common.MakeRandHexString(16)
	if err != nil {
		h.writeError(c, err)
		return
	}
	target, err := h.opts.OAuth.AuthCodeURL(c.Param("provider"), state)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/login/oauth2", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, target)
}

// oauthCallback finishes the code flow and hands the access token to the
// frontend through a redirect.
func (h *handler) oauthCallback(c *gin.Context) {
	if h.opts.OAuth == nil {
		h.writeError(c, common.NotFound("OAuth2 login is not configured"))
		return
	}

	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		h.writeError(c, common.ErrInvalidToken)
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/login/oauth2", "", c.Request.TLS != nil, true)

	code := c.Query("code")
	if code == "" {
		h.writeError(c, badRequest("Missing authorization code"))
		return
	}

	profile, err := h.opts.OAuth.Exchange(c.Request.Context(), c.Param("provider"), code)
	if err != nil {
		h.writeError(c, err)
		return
	}

	res, err := h.svc.Users.OAuthLogin(c.Request.Context(), profile)
	if err != nil {
		h.writeError(c, err)
		return
	}

	target := strings.TrimRight(h.opts.FrontendURL, "/") + "/oauth2/redirect?token=" + url.QueryEscape(res.Token)
	c.Redirect(http.StatusFound, target)
}
