package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pixchat-backend/internal/config"
	"pixchat-backend/internal/handlers"
	"pixchat-backend/internal/middleware"
	"pixchat-backend/internal/repository"
	"pixchat-backend/internal/services"
	"pixchat-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
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

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	relationRepo := repository.NewRelationRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Initialize image store
	imageStore, err := storage.NewImageStore(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create image store")
	}

	// Initialize services
	userService := services.NewUserService(userRepo, relationRepo, imageStore, cfg.JWT.Secret, cfg.JWT.TokenTTL.Std())
	relationService := services.NewRelationService(userRepo, relationRepo)
	chatService := services.NewChatService(chatRepo, messageRepo, userRepo, relationRepo, imageStore)

	hub := services.NewHub()
	dispatcher := services.NewDispatcher(hub)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	relationsHandler := handlers.NewRelationsHandler(relationService, dispatcher)
	chatHandler := handlers.NewChatHandler(chatService, dispatcher)
	wsHandler := handlers.NewWebSocketHandler(hub, dispatcher, userService, chatService)

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
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Get("/auth/me", authHandler.Me)
			r.Get("/auth/user/search", authHandler.Search)
			r.Get("/auth/user/{id}", authHandler.GetUser)
			r.Put("/auth/update", authHandler.Update)
			r.Post("/auth/update-profile-image", authHandler.UpdateProfileImage)

			r.Get("/relations/all", relationsHandler.All)
			r.Get("/relations/friends", relationsHandler.Friends)
			r.Get("/relations/pending-requests", relationsHandler.PendingRequests)
			r.Post("/relations/send-request", relationsHandler.SendRequest)
			r.Post("/relations/accept-request", relationsHandler.AcceptRequest)
			r.Post("/relations/reject-request", relationsHandler.RejectRequest)
			r.Delete("/relations/remove/{friendId}", relationsHandler.RemoveFriend)

			r.Post("/chat/access", chatHandler.Access)
			r.Post("/chat/message/send", chatHandler.SendMessage)
			r.Get("/chat/message/{chatId}", chatHandler.ListMessages)
			r.Patch("/chat/message/react/{messageId}", chatHandler.React)
			r.Delete("/chat/message/delete-message/{messageId}", chatHandler.DeleteMessage)
			r.Get("/chat/recent", chatHandler.Recent)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Background reconciliation sweep for asymmetric relation edges
	reconcilerCtx, stopReconciler := context.WithCancel(context.Background())
	defer stopReconciler()
	if cfg.Reconciler.Enabled {
		reconciler := services.NewReconciler(relationRepo, cfg.Reconciler.Interval.Std())
		go reconciler.Run(reconcilerCtx)
	}

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
	stopReconciler()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

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
