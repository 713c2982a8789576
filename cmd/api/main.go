// cmd/api/main.go
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/order"
	"github.com/your-org/flooring-store/internal/domain/user"
	"github.com/your-org/flooring-store/internal/infrastructure/database/postgres"
	"github.com/your-org/flooring-store/internal/infrastructure/database/redis"
	"github.com/your-org/flooring-store/internal/infrastructure/messaging"
	"github.com/your-org/flooring-store/internal/interfaces/http"
	"github.com/your-org/flooring-store/internal/pkg/email"
	"github.com/your-org/flooring-store/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("starting")

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.Health(pingCtx); err != nil {
		log.WithError(err).Fatal("database health check failed")
	}
	if err := redisClient.Health(pingCtx); err != nil {
		log.WithError(err).Fatal("redis health check failed")
	}
	cancelPing()

	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("index creation failed")
	}

	if cfg.IsDevelopment() && cfg.App.SeedData {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := migration.SeedInitialData(ctx, cfg); err != nil {
			log.WithError(err).Warn("data seeding failed")
		}
		cancel()
	}

	events := order.Publishers{messaging.NewOrderPublisher(cfg.Kafka, log)}
	if cfg.Email.SMTPHost != "" {
		users := user.NewService(db.GetDB(), cfg, log)
		events = append(events, email.NewOrderNotifier(email.NewSMTPSender(cfg.Email), users, cfg.Company, cfg.Email.QueueSize, log))
	}
	defer func() {
		for _, p := range events {
			if closer, ok := p.(io.Closer); ok {
				if err := closer.Close(); err != nil {
					log.WithError(err).Warn("failed to close order event publisher")
				}
			}
		}
	}()

	server := http.NewServer(cfg, db.GetDB(), redisClient.GetClient(), events, log)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("failed to shutdown HTTP server gracefully")
	}

	log.Info("server shutdown completed")
}
