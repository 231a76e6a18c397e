package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/babypal/internal/logging"
	"github.com/gin-gonic/gin"
)

type handler struct {
	svc    Services
	opts   Options
	logger logging.Logger
}

func (h *handler) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), accessLog(h.logger), h.recovery())
	if h.opts.Metrics != nil {
		r.Use(instrument(h.opts.Metrics))
		r.GET("/metrics", gin.WrapH(h.opts.Metrics.Handler()))
	}
	r.GET("/healthz", h.healthz)

	r.GET("/oauth2/authorization/:provider", h.oauthStart)
	r.GET("/login/oauth2/code/:provider", h.oauthCallback)

	api := r.Group("/api")

	public := api.Group("/auth/public")
	public.POST("/signin", h.signIn)
	public.POST("/signup", h.signUp)
	public.POST("/forgot-password", h.forgotPassword)
	public.POST("/reset-password", h.resetPassword)
	public.POST("/verify-2fa-login", h.verifyTwoFactorLogin)

	protected := api.Group("")
	protected.Use(h.authenticate())

	authGroup := protected.Group("/auth")
	authGroup.POST("/signout", h.signOut)
	authGroup.POST("/enable-2fa", h.enableTwoFactor)
	authGroup.POST("/disable-2fa", h.disableTwoFactor)
	authGroup.POST("/verify-2fa", h.verifyTwoFactor)
	authGroup.POST("/update-credentials", h.updateCredentials)
	authGroup.GET("/user", h.currentUser)
	authGroup.GET("/username", h.currentUsername)
	authGroup.GET("/user/2fa-status", h.twoFactorStatus)

	protected.GET("/users/check/:username", h.userExists)

	babies := protected.Group("/babies")
	babies.POST("", h.createBaby)
	babies.GET("", h.listBabies)
	babies.GET("/:id", h.getBaby)
	babies.PUT("/:id", h.updateBaby)
	babies.DELETE("/:id", h.deleteBaby)
	babies.POST("/:id/photo", h.babyPhotoUpload)
	babies.GET("/:id/photo", h.babyPhotoDownload)
	babies.GET("/:id/measurements", h.listBabyMeasurements)
	babies.GET("/:id/records", h.listBabyRecords)

	measurements := protected.Group("/measurements")
	measurements.POST("", h.createMeasurement)
	measurements.GET("", h.listMeasurements)
	measurements.GET("/:id", h.getMeasurement)
	measurements.PUT("/:id", h.updateMeasurement)
	measurements.DELETE("/:id", h.deleteMeasurement)

	records := protected.Group("/records")
	records.POST("", h.createRecord)
	records.GET("", h.listRecords)
	records.GET("/:id", h.getRecord)
	records.PUT("/:id", h.updateRecord)
	records.DELETE("/:id", h.deleteRecord)

	guides := protected.Group("/growth-guides")
	guides.GET("", h.listGrowthGuides)
	guides.GET("/:id", h.getGrowthGuide)
	guides.PUT("/:id", h.updateGrowthGuide)

	admin := protected.Group("/admin")
	admin.Use(h.requireAdmin())
	admin.GET("/get-users", h.adminListUsers)
	admin.GET("/user/:id", h.adminGetUser)
	admin.GET("/roles", h.adminRoles)
	admin.PUT("/update-role", h.adminUpdateRole)
	admin.PUT("/update-lock-status", h.adminUpdateLockStatus)
	admin.PUT("/update-expiry-status", h.adminUpdateExpiryStatus)
	admin.PUT("/update-enabled-status", h.adminUpdateEnabledStatus)
	admin.PUT("/update-credentials-expiry-status", h.adminUpdateCredentialsExpiryStatus)
	admin.PUT("/update-password", h.adminUpdatePassword)
	admin.PUT("/update-account-expiry-date", h.adminUpdateAccountExpiryDate)
	admin.PUT("/update-credentials-expiry-date", h.adminUpdateCredentialsExpiryDate)
	admin.PUT("/update-email", h.adminUpdateEmail)
	admin.GET("/get-babies", h.adminListBabies)
	admin.GET("/get-measurements", h.adminListMeasurements)
	admin.GET("/get-records", h.adminListRecords)
	admin.PUT("/growth-guides/:id", h.updateGrowthGuide)
	admin.GET("/logs", h.adminListLogs)
	admin.GET("/logs/export", h.adminExportLogs)
	admin.GET("/logs/:logId", h.adminGetLog)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "status": http.StatusNotFound})
	})

	return r
}

func (h *handler) healthz(c *gin.Context) {
	if h.opts.Health != nil {
		if err := h.opts.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
