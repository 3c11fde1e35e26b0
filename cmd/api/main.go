package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlexanderKamenka/QuickLine-back/internal/config"
	"github.com/AlexanderKamenka/QuickLine-back/internal/infrastructure/console"
	"github.com/AlexanderKamenka/QuickLine-back/internal/infrastructure/dynamo"
	jwtinfra "github.com/AlexanderKamenka/QuickLine-back/internal/infrastructure/jwt"
	snsinfra "github.com/AlexanderKamenka/QuickLine-back/internal/infrastructure/sns"
	transporthttp "github.com/AlexanderKamenka/QuickLine-back/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Tokens are the whole point of this service, so missing keys are fatal.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	// Console notifier: the dev-mode delivery channel and the fallback that
	// keeps issued codes observable when real delivery fails.
	consoleNotifier := console.NewNotifier(nil)

	notifier := transporthttp.Notifier(consoleNotifier)
	if !cfg.VerificationDevMode {
		sender, err := snsinfra.NewSender(cfg)
		if err != nil {
			log.Printf("WARN: SNS sender not available, codes go to the console: %v", err)
		} else {
			notifier = sender
		}
	}

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		Notifier:    notifier,
		Fallback:    consoleNotifier,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, dev_mode=%t)", cfg.AppPort, cfg.AppEnv, cfg.VerificationDevMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
