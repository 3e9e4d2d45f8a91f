package server

import (
	"net/http"
	"time"

	"site-defects/internal/config"
	"site-defects/internal/handlers"
	"site-defects/internal/metrics"
	"site-defects/internal/middleware"
	"site-defects/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const sessionName = "defects_session"

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	if len(cfg.CORSOrigins) == 0 {
		return cors.Default()
	}
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.UserHeader, handlers.IdempotencyHeader},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func NewRouter(cfg *config.Config, h *handlers.Handler, reg *prometheus.Registry) *gin.Engine {
	r := gin.Default()

	r.Use(corsMiddleware(cfg))
	r.Use(metrics.HTTPMetricsMiddleware(reg))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 7 * 24 * 3600, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(middleware.LoadSession())

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", metrics.Handler(reg))

	// VENDOR REPAIR LINK, no login
	r.GET("/repair/:code", h.ShowRepair)
	r.POST("/repair/:code", h.SubmitRepair)

	auth := r.Group("/")
	auth.Use(middleware.RequireUser())

	// SESSION
	auth.GET("/session", h.ShowSession)
	auth.POST("/session/project", h.SelectProject)

	// PROJECTS
	auth.GET("/projects", h.ListProjects)
	auth.POST("/projects", h.CreateProject)
	auth.GET("/projects/:id", h.GetProject)
	auth.PUT("/projects/:id", h.UpdateProject)
	auth.DELETE("/projects/:id", h.DeleteProject)

	// USERS
	auth.GET("/users", h.ListUsers)
	auth.POST("/users", h.CreateUser)
	auth.PUT("/users/:id", h.UpdateUser)
	auth.DELETE("/users/:id", h.DeleteUser)

	// PERMISSIONS
	auth.GET("/projects/:id/permissions", h.ListPermissions)
	auth.POST("/projects/:id/permissions", h.CreatePermission)
	auth.GET("/permissions", h.UserPermissions)
	auth.PUT("/permissions/:id", h.UpdatePermission)
	auth.DELETE("/permissions/:id", h.DeletePermission)

	// AUDIT
	auth.GET("/audit", h.ListAuditLogs)

	// everything below works inside the active project
	proj := auth.Group("/")
	proj.Use(middleware.RequireProject())

	// VENDORS
	proj.GET("/vendors", h.ListVendors)
	proj.POST("/vendors", h.CreateVendor)
	proj.PUT("/vendors/:id", h.UpdateVendor)
	proj.DELETE("/vendors/:id", h.DeleteVendor)

	// DEFECT CATEGORIES
	proj.GET("/categories", h.ListCategories)
	proj.POST("/categories", h.CreateCategory)
	proj.PUT("/categories/:id", h.UpdateCategory)
	proj.DELETE("/categories/:id", h.DeleteCategory)

	// BASEMAPS
	proj.GET("/basemaps", h.ListBasemaps)
	proj.POST("/basemaps", h.CreateBasemap)
	proj.POST("/basemaps/:id/image", h.UploadBasemapImage)

	// DEFECT DRAFT
	proj.GET("/defects/draft", h.ShowDraft)
	proj.PUT("/defects/draft/details", h.PutDraftDetails)
	proj.PUT("/defects/draft/location", h.PutDraftLocation)
	proj.POST("/defects/draft/photos", h.AddDraftPhotos)
	proj.POST("/defects/draft/submit", h.SubmitDraft)
	proj.DELETE("/defects/draft", h.DeleteDraft)

	// DEFECTS
	proj.GET("/defects", h.ListDefects)
	proj.POST("/defects", h.CreateDefect)
	proj.GET("/defects/:id", h.GetDefect)
	proj.DELETE("/defects/:id", h.DeleteDefect)
	proj.GET("/defects/:id/history", h.DefectHistory)
	proj.GET("/defects/:id/qrcode", h.DefectQRCode)

	// REVIEW
	proj.POST("/defects/:id/confirm", h.Transition(models.EventConfirm))
	proj.POST("/defects/:id/reject", h.Transition(models.EventReject))
	proj.POST("/defects/:id/cancel", h.Transition(models.EventCancel))
	proj.POST("/defects/:id/hold", h.Transition(models.EventHold))
	proj.POST("/defects/:id/resume", h.Transition(models.EventResume))

	// DASHBOARD
	proj.GET("/dashboard", h.Dashboard)
	proj.GET("/dashboard/export.xlsx", h.ExportDefects)

	return r
}
