package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/config"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/db"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/http/handlers"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/http/middleware"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/service"

	_ "github.com/marwie0904/leadify-RE-APP-sub001/docs"
)

func Router(cfg config.Config, store *db.Store, orchestrator *service.Orchestrator, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Chat:      orchestrator,
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/chat", h.PostChat)
		api.GET("/conversations/:id", h.ConversationDetails)
		api.GET("/leads", h.LeadsList)
		api.GET("/leads/:id", h.LeadDetails)
		api.GET("/agents/:id/scoring", h.ScoringGet)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.PUT("/agents/:id/scoring", h.ScoringUpsert)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
