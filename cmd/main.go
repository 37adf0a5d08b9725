package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"team-chat/auth"
	"team-chat/domain"
	"team-chat/moderation"
	"team-chat/observability"
	"team-chat/realtime"
	"team-chat/repositories"
	"team-chat/server"
	"team-chat/services"
)

const defaultPageLimit = 50

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes
// error reporting so every deferred cleanup executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + Bluge index)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	// 3. Repositories & Services
	userRepository := repositories.NewUserRepository(db)
	channelRepository := repositories.NewChannelRepository(db)

	pageLimit := defaultPageLimit
	if config.LimitMessages != nil {
		pageLimit = *config.LimitMessages
	}
	messageRepository := repositories.NewMessageRepository(db, index, log, pageLimit)

	censored, err := moderation.LoadDefaultWordlists()
	if err != nil {
		return fmt.Errorf("wordlist loading failed: %w", err)
	}
	log.Info("Moderation dictionaries loaded", "words", len(censored.Words), "languages", censored.Languages)

	moderator, err := moderation.NewModerator(censored.Words, config.ModerationCharReplacement, log)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}

	issuer := auth.NewTokenIssuer(config.JWTSecret, config.TokenDuration)
	authService := services.NewAuthService(userRepository, issuer)
	channelService := services.NewChannelService(channelRepository)
	messageService := services.NewMessageService(messageRepository, channelRepository, &moderator)

	// 4. Realtime layer
	lookup := func(userID string) (domain.Profile, error) {
		user, err := userRepository.GetUserByID(userID)
		if err != nil {
			return domain.Profile{}, err
		}
		return user.Profile(), nil
	}
	presence := realtime.NewPresence(lookup, log)
	hub := realtime.NewHub(presence, channelService.CanAccess, log)

	checkOrigin := func(r *http.Request) bool {
		if config.AllowedOrigin == "*" {
			return true
		}
		return r.Header.Get("Origin") == config.AllowedOrigin
	}
	wsHandler := realtime.NewHandler(hub, issuer, checkOrigin, log)

	// 5. HTTP server
	monitor, err := observability.NewMonitor(log)
	if err != nil {
		return fmt.Errorf("monitor setup failed: %w", err)
	}
	handlers := server.NewHandlers(authService, channelService, messageService,
		userRepository, issuer, monitor, hub, log)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:              address,
		Handler:           server.NewMux(handlers, wsHandler, config.AllowedOrigin),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup; websocket connections are dropped with the server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}
