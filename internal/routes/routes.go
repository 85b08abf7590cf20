package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lebelle-app/agenda-api/internal/audit"
	"github.com/lebelle-app/agenda-api/internal/auth"
	"github.com/lebelle-app/agenda-api/internal/config"
	"github.com/lebelle-app/agenda-api/internal/docstore"
	"github.com/lebelle-app/agenda-api/internal/handlers"
	"github.com/lebelle-app/agenda-api/internal/imagehost"
	"github.com/lebelle-app/agenda-api/internal/metrics"
	"github.com/lebelle-app/agenda-api/internal/middleware"
	"github.com/lebelle-app/agenda-api/internal/securestore"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.CORSMiddleware())
	r.Use(metrics.Middleware(cfg.ServiceName))

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	docs := docstore.New(db, rdb, logger)

	authService := auth.NewService(db, cfg.JWTSecret, auth.LogMailer{Logger: logger}, logger)

	vault := securestore.NewPasswordVault(securestore.NewFileStore(cfg.SecureStorePath, cfg.SecureStoreKey))

	uploader := imagehost.NewUploader(cfg.CloudName, cfg.UploadPreset, logger)

	auditLogger := audit.New(db)
	auditDispatcher := audit.NewDispatcher(auditLogger, logger)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(authService, docs, vault, auditDispatcher, logger)
	meHandler := handlers.NewMeHandler(authService, docs, vault, uploader, logger)
	clientHandler := handlers.NewClientHandler(docs, auditDispatcher, logger)
	scheduleHandler := handlers.NewScheduleHandler(docs, auditDispatcher, cfg, logger)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	// ======================================================
	// OPERACIONAL
	// ======================================================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": cfg.ServiceName})
	})
	r.GET("/metrics", metrics.Handler())

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/forgot-password", authHandler.ForgotPassword)
		api.POST("/auth/reset-password", authHandler.ResetPassword)

		// ------------------------------
		// API PRIVADA
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)
			secured.PATCH("/me/avatar", meHandler.UpdateAvatar)
			secured.GET("/me/accounts", meHandler.ListAccounts)
			secured.POST("/me/accounts/switch", meHandler.SwitchAccount)

			secured.GET("/me/clients", clientHandler.List)
			secured.POST("/me/clients", clientHandler.Create)
			secured.PATCH("/me/clients/:id", clientHandler.Update)
			secured.DELETE("/me/clients/:id", clientHandler.Delete)
			secured.POST("/me/clients/import", clientHandler.Import)

			// ------------------------------
			// SCHEDULES
			// ------------------------------
			secured.GET("/me/schedules", scheduleHandler.ListByDay)
			secured.GET("/me/schedules/month", scheduleHandler.Month)
			secured.POST("/me/schedules", scheduleHandler.Create)
			secured.PATCH("/me/schedules/:id", scheduleHandler.Update)
			secured.DELETE("/me/schedules/:id", scheduleHandler.Delete)

			secured.GET("/me/audit-logs", auditLogsHandler.List)
		}
	}
}
