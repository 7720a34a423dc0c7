package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"social-chat-service/internal/auth"
	"social-chat-service/internal/config"
	"social-chat-service/internal/db"
	"social-chat-service/internal/handlers"
	"social-chat-service/internal/logger"
	"social-chat-service/internal/middleware"
	"social-chat-service/internal/observability"
	"social-chat-service/internal/rabbitmq"
	"social-chat-service/internal/repositories"
	"social-chat-service/internal/storage"
	"social-chat-service/internal/telemetry"
	"social-chat-service/internal/ws"
)

const serviceName = "social-chat-service"

func main() {
	cfg := config.Load()
	logger.Init(cfg.Environment)

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing, err := telemetry.InitTracing(context.Background(), serviceName, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		logger.Log.Fatalf("failed to init tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	if eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
		logger.Log.Warnf("ws event publisher disabled: %v", err)
	} else {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	logger.Log.Infof("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit.social_chat", serviceName, cfg.Environment)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, cfg.RefreshTTL)
	avatars := storage.NewAvatarStore(context.Background(), cfg.StorageBucket, cfg.StorageCreds)

	profileRepo := repositories.NewProfileRepo(database)
	friendRepo := repositories.NewFriendRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub()

	authHandler := handlers.NewAuthHandler(profileRepo, tokens, auditEmitter)
	profileHandler := handlers.NewProfileHandler(profileRepo, avatars)
	friendHandler := handlers.NewFriendHandler(friendRepo, auditEmitter)
	messageHandler := handlers.NewMessageHandler(messageRepo, friendRepo, hub, auditEmitter)
	conversationWS := ws.NewConversationWebSocketHandler(hub, friendRepo, tokens)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)
	router.POST("/auth/refresh", authHandler.Refresh)

	authMiddleware := middleware.AuthMiddleware(tokens)

	router.GET("/auth/me", authMiddleware, authHandler.Me)
	router.POST("/auth/logout", authMiddleware, authHandler.Logout)

	router.GET("/users/search", authMiddleware, profileHandler.Search)
	router.PATCH("/profile/username", authMiddleware, profileHandler.UpdateUsername)
	router.PATCH("/profile/email", authMiddleware, profileHandler.UpdateEmail)
	router.PATCH("/profile/password", authMiddleware, profileHandler.UpdatePassword)
	router.POST("/profile/avatar", authMiddleware, profileHandler.UploadAvatar)

	router.POST("/friends/requests", authMiddleware, friendHandler.SendRequest)
	router.DELETE("/friends/requests/:request_id", authMiddleware, friendHandler.CancelRequest)
	router.POST("/friends/requests/:request_id/accept", authMiddleware, friendHandler.AcceptRequest)
	router.POST("/friends/requests/:request_id/decline", authMiddleware, friendHandler.DeclineRequest)
	router.GET("/friends/requests/incoming", authMiddleware, friendHandler.ListIncoming)
	router.GET("/friends/requests/outgoing", authMiddleware, friendHandler.ListOutgoing)
	router.GET("/friends", authMiddleware, friendHandler.ListFriends)

	router.GET("/messages/:friend_id", authMiddleware, messageHandler.GetConversation)
	router.POST("/messages/:friend_id", authMiddleware, messageHandler.PostMessage)

	router.GET("/ws/conversations/:friend_id", conversationWS.Handle)

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatalf("server error: %v", err)
	}
}
