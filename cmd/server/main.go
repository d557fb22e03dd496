package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/recipe-comments-api/internal/api"
	"github.com/recipe-comments-api/internal/config"
	"github.com/recipe-comments-api/internal/database"
	"github.com/recipe-comments-api/internal/render"
	"github.com/recipe-comments-api/internal/repository"
	"github.com/recipe-comments-api/internal/service"
	"github.com/recipe-comments-api/internal/session"
	"github.com/recipe-comments-api/pkg/logger"
	"github.com/rs/cors"
)

func main() {
	issueFor := flag.String("issue-token", "", "issue a session token for this username, print it and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "json")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting Recipe Comments API server...")

	// Initialize session store
	sessions, err := session.NewRedisStore(cfg.Redis.URL, cfg.Redis.Prefix, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to session store")
	}
	defer sessions.Close()

	if *issueFor != "" {
		token, err := sessions.Issue(context.Background(), *issueFor, cfg.Redis.SessionTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to issue session token")
		}
		os.Stdout.WriteString(token + "\n")
		return
	}

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db)

	renderer, err := render.New(cfg.Comments.RenderCacheSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create markdown renderer")
	}

	// Initialize services
	services := service.NewServices(repos, cfg, renderer, log)

	// Initialize router
	router := api.NewRouter(services, sessions, cfg, log)

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	}).Handler(router)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
