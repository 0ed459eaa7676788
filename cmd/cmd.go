package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-chat-backend/internal/config"
	"social-chat-backend/internal/handlers"
	"social-chat-backend/internal/middleware"
	"social-chat-backend/internal/repository"
	"social-chat-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Initialize services
	var pusher services.Pusher
	if cfg.APNs.Enabled {
		apns, err := services.NewAPNsPusher(cfg.APNs.CertFile, cfg.APNs.CertPass, cfg.APNs.Topic, cfg.APNs.Production)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs client")
		}
		pusher = apns
	}

	presence := services.NewPresence()
	hub := services.NewHub(presence)
	userService := services.NewUserService(userRepo, cfg.JWT.Secret)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, hub, pusher)
	friendshipService := services.NewFriendshipService(friendshipRepo, userRepo, notificationService, hub)
	messageService := services.NewMessageService(messageRepo, friendshipRepo, userRepo, hub)
	postService := services.NewPostService(postRepo, commentRepo, friendshipRepo, notificationService, hub)
	mediaService, err := services.NewMediaService(
		context.Background(),
		cfg.AWS.Region,
		cfg.AWS.S3Bucket,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create media service")
	}

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	friendshipHandler := handlers.NewFriendshipHandler(friendshipService, messageService)
	messageHandler := handlers.NewMessageHandler(messageService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	postHandler := handlers.NewPostHandler(postService)
	mediaHandler := handlers.NewMediaHandler(mediaService)
	wsHandler := handlers.NewWebSocketHandler(hub, userService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/signup", userHandler.Signup)
		r.Post("/auth/login", userHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Get("/auth/check", userHandler.Check)
			r.Put("/auth/profile", userHandler.UpdateProfile)
			r.Patch("/auth/stranger-message", userHandler.SetStrangerMessage)
			r.Get("/auth/search-users", userHandler.SearchUsers)
			r.Post("/auth/push-token", userHandler.RegisterPushToken)

			r.Post("/friendship/request", friendshipHandler.SendRequest)
			r.Post("/friendship/accept", friendshipHandler.Accept)
			r.Post("/friendship/decline", friendshipHandler.Decline)
			r.Post("/friendship/cancel", friendshipHandler.Cancel)
			r.Post("/friendship/unfriend", friendshipHandler.Unfriend)
			r.Get("/friendship/list", friendshipHandler.Friends)
			r.Get("/friendship/sent", friendshipHandler.Sent)
			r.Get("/friendship/received", friendshipHandler.Received)
			r.Get("/friendship/count/{userId}", friendshipHandler.Count)
			r.Get("/friendship/can-message/{userId}", friendshipHandler.CanMessage)

			r.Post("/messages/send/{receiverId}", messageHandler.Send)
			r.Get("/messages/{userId}", messageHandler.Conversation)
			r.Get("/messages", messageHandler.Sidebar)

			r.Get("/notifications", notificationHandler.List)
			r.Get("/notifications/unread-count", notificationHandler.UnreadCount)
			r.Patch("/notifications/mark-all-read", notificationHandler.MarkAllRead)
			r.Patch("/notifications/{id}/read", notificationHandler.MarkRead)
			r.Delete("/notifications/{id}", notificationHandler.Delete)

			r.Post("/posts", postHandler.Create)
			r.Get("/posts", postHandler.Feed)
			r.Get("/posts/user/{userId}", postHandler.ByUser)
			r.Get("/posts/{id}", postHandler.Get)
			r.Put("/posts/{id}", postHandler.Update)
			r.Delete("/posts/{id}", postHandler.Delete)
			r.Post("/posts/{id}/pin", postHandler.Pin)
			r.Post("/posts/{id}/privacy", postHandler.ChangePrivacy)
			r.Post("/posts/{id}/like", postHandler.Like)
			r.Get("/posts/{id}/likes", postHandler.Likes)
			r.Post("/posts/{id}/comment", postHandler.Comment)
			r.Get("/posts/{id}/comments", postHandler.Comments)
			r.Post("/posts/comments/{commentId}/reply", postHandler.Reply)

			r.Post("/media/upload-url", mediaHandler.UploadURL)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Metrics
	r.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
