package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"stream-chat-service/internal/chat"
	"stream-chat-service/internal/config"
	"stream-chat-service/internal/db"
	grpcserver "stream-chat-service/internal/grpc"
	"stream-chat-service/internal/handlers"
	"stream-chat-service/internal/logging"
	"stream-chat-service/internal/middleware"
	"stream-chat-service/internal/observability"
	"stream-chat-service/internal/rabbitmq"
	"stream-chat-service/internal/repositories"
	"stream-chat-service/internal/telemetry"
	"stream-chat-service/internal/ws"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat).WithField("service", cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment, log)
	if err != nil {
		log.WithError(err).Fatal("failed to init tracing")
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.WithFields(logrus.Fields{
		"mode":   rabbitmq.PublisherMode(publisher),
		"reason": rabbitmq.PublisherNoopReason(publisher),
	}).Info("event publisher ready")
	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit.log", cfg.ServiceName, cfg.Environment, log)

	database, err := db.Connect(ctx, cfg.DatabaseDSN, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to db")
	}
	defer database.Close()

	terms, err := cfg.ModerationTermMap()
	if err != nil {
		log.WithError(err).Fatal("invalid moderation terms")
	}
	classifier, err := chat.NewClassifier(terms)
	if err != nil {
		log.WithError(err).Fatal("failed to build moderation classifier")
	}

	hub := ws.NewHub(log)
	service := chat.NewService(
		repositories.NewUserRepo(database),
		repositories.NewRoomRepo(database),
		repositories.NewMessageRepo(database),
		repositories.NewModerationRepo(database),
		hub,
		log,
		chat.WithMaxMessageLength(cfg.MaxMessageLength),
		chat.WithClassifier(classifier),
		chat.WithAuditor(auditEmitter),
	)

	credentials := middleware.NewCredentialParser(cfg.JWTSecret)
	dispatcher := ws.NewDispatcher(service, cfg.RejectUnauthorized, log)
	wsHandler := ws.NewHandler(service, dispatcher, credentials, ws.HandlerConfig{
		SendBuffer:   cfg.SendBufferSize,
		MessageRate:  cfg.MessageRate,
		MessageBurst: cfg.MessageBurst,
	}, log)
	roomHandler := handlers.NewRoomHandler(service, log)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(credentials, service)

	router.GET("/healthz", handlers.Healthz(database))
	router.GET("/metrics", gin.WrapH(observability.Handler()))
	router.GET("/rooms/:room_id/messages", authMiddleware, roomHandler.GetMessages)
	router.GET("/rooms/:room_id/blocked", authMiddleware, roomHandler.GetBlockedUsers)
	router.GET("/ws", wsHandler.Handle)
	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	healthServer := grpcserver.NewHealthServer(database, 10*time.Second, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", httpServer.Addr).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCHealthPort)
		if err != nil {
			return err
		}
		return healthServer.Serve(gctx, lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.WithFields(logrus.Fields{
			"connections": wsHandler.ActiveConnections(),
			"rooms":       hub.RoomCount(),
		}).Info("shutting down")
		if err := wsHandler.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("websocket connections did not drain")
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("http shutdown")
		}
		return shutdownTracer(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped with error")
		os.Exit(1)
	}
	log.Info("server stopped")
}
