package router

import (
	"log"
	"time"

	"vigilo/config"
	"vigilo/internal/handler"
	"vigilo/internal/middleware"
	"vigilo/internal/repository"
	"vigilo/internal/service"
	"vigilo/internal/ws"
	"vigilo/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewRequestLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	locRepo := repository.NewLocationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	confirmationRepo := repository.NewConfirmationRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	hub := ws.NewHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	fcmSvc := service.NewFCMService(cfg.Firebase.ServiceAccountPath)
	if fcmSvc != nil {
		log.Printf("[FCM] Push notifications enabled")
	} else if cfg.Firebase.ServiceAccountPath != "" {
		log.Printf("[FCM] Push notifications disabled: failed to init (check service account file)")
	} else {
		log.Printf("[FCM] Push notifications disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}
	reportSvc := service.NewReportService(&cfg.Alert, reportRepo, locRepo, alertRepo, fcmSvc, hub)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	meHandler := handler.NewMeHandler(userRepo)
	locationHandler := handler.NewLocationHandler(locRepo)
	nearbyHandler := handler.NewNearbyHandler(locRepo, cfg.Alert.VerifiedOnly)
	reportHandler := handler.NewReportHandler(reportSvc, reportRepo, confirmationRepo)
	alertHandler := handler.NewAlertHandler(alertRepo)
	uploadHandler := handler.NewUploadHandler(cloud)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
		}

		api.GET("/nearby", authMw, nearbyHandler.Find)

		api.POST("/reports", authMw, reportHandler.Create)
		api.GET("/reports", authMw, reportHandler.List)
		api.GET("/reports/:id", authMw, reportHandler.Get)
		api.PATCH("/reports/:id/status", authMw, reportHandler.UpdateStatus)
		api.POST("/reports/:id/confirmations", authMw, reportHandler.Confirm)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.GetProfile)
			me.GET("/reports", reportHandler.ListMine)
			me.GET("/alerts", alertHandler.List)
			me.GET("/alerts/unread-count", alertHandler.UnreadCount)
			me.PUT("/alerts/:id/read", alertHandler.MarkRead)
			me.PATCH("/location", locationHandler.UpdateLocation)
			me.GET("/location", locationHandler.GetMyLocation)
			me.POST("/fcm-token", meHandler.RegisterFCMToken)
			me.POST("/upload/photo", uploadHandler.UploadReportPhoto)
		}
	}

	r.GET("/ws/alerts", ws.UpgradeAlertsWS(&cfg.JWT, hub))

	return r
}
