package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jobsterhq/jobster-be/internal/api"
	"github.com/jobsterhq/jobster-be/internal/apperror"
	"github.com/jobsterhq/jobster-be/internal/auth"
	"github.com/jobsterhq/jobster-be/internal/config"
	"github.com/jobsterhq/jobster-be/internal/database"
	"github.com/jobsterhq/jobster-be/internal/geo"
	"github.com/jobsterhq/jobster-be/internal/logger"
	"github.com/jobsterhq/jobster-be/internal/mail"
	"github.com/jobsterhq/jobster-be/internal/monitoring"
	"github.com/jobsterhq/jobster-be/internal/services"
	"github.com/jobsterhq/jobster-be/internal/storage"
	"github.com/jobsterhq/jobster-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.IsProduction())
	apperror.SetProduction(cfg.IsProduction())

	// Ensure the upload directory exists
	if err := os.MkdirAll(cfg.UploadPath, 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create upload directory")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket hub for the posting feed
	hub := websocket.NewHub()
	go hub.Run()

	// External collaborators
	geocoder := geo.NewNominatimClient(cfg.GeocoderURL, cfg.GeocoderUserAgent)
	var mailer mail.Mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	if !cfg.IsProduction() {
		mailer = mail.LogMailer{}
	}

	// Set up services
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	store := storage.NewUploadStore(cfg.UploadPath, cfg.MaxUploadSize)
	userService := services.NewUserService(db, tokens, store)
	jobService := services.NewJobService(db, geocoder, store, hub)

	// Set up and run the reset-token sweeper
	sweeper := monitoring.NewTokenSweeper(userService)
	if err := sweeper.Run(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start reset-token sweeper")
	}

	// Set up router
	router := api.NewRouter(api.Deps{
		Config:      cfg,
		DB:          db,
		Tokens:      tokens,
		Mailer:      mailer,
		Hub:         hub,
		UserService: userService,
		JobService:  jobService,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
