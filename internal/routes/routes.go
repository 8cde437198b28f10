package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/douanenc/backend/internal/handlers"
	"github.com/douanenc/backend/internal/middleware"
	"github.com/douanenc/backend/internal/models"
)

// Handlers groups everything the router wires up.
type Handlers struct {
	Auth         *handlers.AuthHandler
	MFA          *handlers.MFAHandler
	Document     *handlers.DocumentHandler
	Control      *handlers.ControlHandler
	Fine         *handlers.FineHandler
	Template     *handlers.TemplateHandler
	DocumentType *handlers.DocumentTypeHandler
	Stats        *handlers.StatsHandler
	Sydonia      *handlers.SydoniaHandler
}

// Register wires the full HTTP surface onto the engine. Route-level
// role groups are coarse gates; fine-grained authorization lives in
// the services.
func Register(router *gin.Engine, h Handlers, rateLimiter *middleware.RateLimiter, corsOrigins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(rateLimiter.IPRateLimiterMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/api/auth")
	authGroup.Use(rateLimiter.AuthRateLimiterMiddleware())
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
	}
	router.GET("/api/auth/me", middleware.AuthMiddleware(), h.Auth.Me)

	mfaGroup := router.Group("/api/mfa")
	mfaGroup.Use(middleware.AuthMiddleware())
	{
		mfaGroup.GET("/status", h.MFA.Status)
		mfaGroup.POST("/setup", h.MFA.Setup)
		mfaGroup.POST("/verify", h.MFA.Verify)
		mfaGroup.POST("/disable", h.MFA.Disable)
	}

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		documents := api.Group("/documents")
		{
			documents.GET("", h.Document.List)
			documents.POST("", h.Document.Create)
			documents.GET("/:id", h.Document.Get)
			documents.PUT("/:id", h.Document.Update)
			documents.POST("/:id/submit", h.Document.Submit)
			documents.POST("/:id/decision", h.Document.Decide)
			documents.GET("/:id/history", h.Document.History)
			documents.GET("/:id/pdf", h.Document.Download)
		}

		controls := api.Group("/controls")
		controls.Use(middleware.RequireRoles(models.RoleControlOfficer, models.RoleValidationOfficer))
		{
			controls.GET("", h.Control.List)
			controls.POST("", h.Control.Initiate)
			controls.GET("/:id", h.Control.Get)
			controls.PUT("/:id/compliance", h.Control.UpdateCompliance)
			controls.POST("/:id/non-compliance", h.Control.RecordNonCompliance)
			controls.POST("/:id/declarant-validation", h.Control.DeclarantValidation)
			controls.GET("/:id/history", h.Control.History)
			controls.GET("/:id/certificate", h.Control.Certificate)
		}

		fines := api.Group("/fines")
		fines.Use(middleware.RequireRoles(models.RoleControlOfficer, models.RoleValidationOfficer))
		{
			fines.GET("", h.Fine.List)
			fines.GET("/:id/payment-notice", h.Fine.PaymentNotice)
		}

		templates := api.Group("/templates")
		{
			templates.GET("", h.Template.List)
			templates.POST("", h.Template.Create)
			templates.PUT("/:id", h.Template.Update)
			templates.DELETE("/:id", h.Template.Delete)
		}

		docTypes := api.Group("/document-types")
		{
			docTypes.GET("", h.DocumentType.List)
			docTypes.POST("", h.DocumentType.Create)
			docTypes.PUT("/:id", h.DocumentType.Update)
			docTypes.DELETE("/:id", h.DocumentType.Delete)
		}

		api.GET("/regulations", h.Template.ListRegulations)
		api.GET("/stats", h.Stats.Overview)
		api.GET("/sydonia/declaration/:id",
			middleware.RequireRoles(models.RoleControlOfficer, models.RoleValidationOfficer),
			h.Sydonia.GetDeclaration)
	}
}
