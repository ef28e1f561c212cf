package main

import (
	"context"
	"net/http"
	"time"

	"community-match-service/internal/config"
	"community-match-service/internal/database"
	"community-match-service/internal/handlers"
	"community-match-service/internal/middleware"
	"community-match-service/internal/redis"
	"community-match-service/internal/services"
	"community-match-service/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	log := logrus.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	configureLogger(log, cfg)
	gin.SetMode(cfg.GinMode)

	db, err := database.Initialize(cfg.DatabaseURL, cfg.DBSlowQueryThreshold, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = redis.Initialize(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()
	} else {
		log.Warn("REDIS_URL not set, counting views in the database and delivering events to local sockets only")
	}

	hub := websocket.NewHub(cfg.AllowedOrigins, log)
	if redisClient != nil {
		go func() {
			if err := hub.Relay(context.Background(), redisClient); err != nil {
				log.WithError(err).Error("Event relay stopped")
			}
		}()
	}
	deps := buildServices(cfg, db, redisClient, hub, log)
	auth := middleware.NewAuthenticator(cfg.JWTSecret)

	router := setupRoutes(cfg, db, auth, deps, hub, log)

	log.WithField("port", cfg.Port).Info("Server starting")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("Failed to start server")
	}
}

func configureLogger(log *logrus.Logger, cfg *config.Config) {
	if cfg.GinMode == gin.ReleaseMode {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}

type engine struct {
	guard         *services.ModerationGuard
	likes         *services.LikeLedger
	detector      *services.MatchDetector
	conversations *services.ConversationRegistry
	messages      *services.MessageLog
	views         *services.ViewCounter
}

// buildServices wires the engine. With redis, events go through pub/sub and
// reach local sockets via hub.Relay; without it they go straight to the hub
// and views are counted in the database.
func buildServices(cfg *config.Config, db *gorm.DB, redisClient *redis.Client,
	hub *websocket.Hub, log logrus.FieldLogger) *engine {
	var notifier services.Notifier = hub
	viewStore := services.NewDBViewStore(db)
	if redisClient != nil {
		notifier = services.NewRedisPublisher(redisClient, log)
		viewStore = services.NewRedisViewStore(redisClient)
	}

	profiles := services.NewProfileDirectory(db)
	guard := services.NewModerationGuard(db, profiles, services.ReportLimits{
		ReasonMaxLength:  cfg.ReportReasonMaxLength,
		DetailsMaxLength: cfg.ReportDetailsMaxLength,
	}, log)
	conversations := services.NewConversationRegistry(db, log)
	detector := services.NewMatchDetector(db, guard, conversations, profiles, notifier, log)

	return &engine{
		guard:         guard,
		detector:      detector,
		conversations: conversations,
		likes:         services.NewLikeLedger(db, guard, detector, profiles, log),
		messages: services.NewMessageLog(db, guard, conversations, notifier, services.MessageLimits{
			MaxLength:       cfg.MessageMaxLength,
			DefaultPageSize: cfg.MessagePageSize,
			MaxPageSize:     cfg.MessagePageMax,
		}, log),
		views: services.NewViewCounter(viewStore, log),
	}
}

func setupRoutes(cfg *config.Config, db *gorm.DB, auth *middleware.Authenticator,
	e *engine, hub *websocket.Hub, log logrus.FieldLogger) *gin.Engine {

	matchHandler := handlers.NewMatchHandler(e.likes, e.detector, e.conversations, cfg.MatchPageSize)
	messageHandler := handlers.NewMessageHandler(e.conversations, e.messages)
	moderationHandler := handlers.NewModerationHandler(e.guard)
	viewHandler := handlers.NewViewHandler(e.views)
	realtimeHandler := handlers.NewRealtimeHandler(hub)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		if err := database.Ping(c.Request.Context(), db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(auth.Required())
	{
		likes := v1.Group("/likes")
		{
			likes.POST("", matchHandler.GiveLike)
			likes.DELETE("/:target_id", matchHandler.RemoveLike)
			likes.GET("/sent", matchHandler.SentLikes)
			likes.GET("/received", matchHandler.ReceivedLikes)
		}

		matches := v1.Group("/matches")
		{
			matches.GET("", matchHandler.GetMatches)
			matches.GET("/:id/conversation", matchHandler.GetConversation)
		}

		conversations := v1.Group("/conversations")
		{
			conversations.GET("/:id", messageHandler.GetConversation)
			conversations.GET("/:id/messages", messageHandler.GetMessages)
			conversations.POST("/:id/messages", messageHandler.SendMessage)
		}

		blocks := v1.Group("/blocks")
		{
			blocks.POST("", moderationHandler.Block)
			blocks.DELETE("/:blocked_id", moderationHandler.Unblock)
			blocks.GET("", moderationHandler.ListBlocks)
		}

		v1.POST("/reports", moderationHandler.Report)

		posts := v1.Group("/posts")
		{
			posts.POST("/:id/view", viewHandler.RecordView)
			posts.GET("/:id/views", viewHandler.GetViews)
		}

		v1.GET("/ws", realtimeHandler.Connect)
	}

	return router
}
