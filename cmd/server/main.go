package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopcart/internal/auth"
	"shopcart/internal/config"
	"shopcart/internal/database"
	"shopcart/internal/email"
	"shopcart/internal/token"
	"shopcart/internal/user"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables from .env file.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("Initialization error: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from DB: %v", err)
		}
	}()

	if err := database.EnsureIndexes(ctx, client, cfg.MongoDB); err != nil {
		log.Fatalf("Index creation error: %v", err)
	}

	users := user.NewMongoRepository(database.UserCollection(client, cfg.MongoDB))
	tokens := token.NewMongoRepository(database.ResetTokenCollection(client, cfg.MongoDB))
	mailer := email.NewService(cfg.SMTPServer, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTExpires)*time.Second)

	svc := auth.NewService(users, tokens, mailer, issuer, cfg.FrontendURL)
	handler := auth.NewHandler(svc, issuer)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	// The front end runs on its own origin, so allow it through CORS.
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{cfg.FrontendURL}),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	loggedRouter := handlers.LoggingHandler(os.Stdout, cors(router))

	addr := ":" + cfg.Port
	srv := &http.Server{
		Handler:      loggedRouter,
		Addr:         addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on http://localhost%s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signals for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting gracefully.")
}
