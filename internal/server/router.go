// Package server assembles the HTTP API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"saveit/internal/handlers"
	"saveit/internal/middleware"
	"saveit/internal/services"
	"saveit/internal/session"
)

// Dependencies are the services the router serves.
type Dependencies struct {
	Issuer     *session.Issuer
	SMS        services.SMSServicer
	Reminders  services.ReminderServicer
	DB         handlers.Pinger
	CronSecret string
	// Swagger mounts /swagger/*any when set.
	Swagger bool
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(deps Dependencies) *gin.Engine {
	smsHandler := handlers.NewSMSHandler(deps.SMS)
	cronHandler := handlers.NewCronHandler(deps.Reminders)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	if deps.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", healthHandler.Health)

	v1 := router.Group("/api/v1")

	// Scheduler-triggered jobs; GET is what hosted cron services send.
	cron := v1.Group("/cron", middleware.CronAuthMiddleware(deps.CronSecret))
	cron.GET("/daily-reminders", cronHandler.DailyReminders)
	cron.POST("/daily-reminders", cronHandler.DailyReminders)

	protected := v1.Group("/", middleware.AuthMiddleware(deps.Issuer))

	sms := protected.Group("/sms")
	sms.POST("/subscribe", smsHandler.Subscribe)
	sms.GET("/settings", smsHandler.GetSettings)
	sms.POST("/send", smsHandler.Send)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
