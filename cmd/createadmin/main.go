// cmd/createadmin/main.go creates (or finds) an admin account.
//
//	go run ./cmd/createadmin -email owner@example.com -password 'S3curePass'
package main

import (
	"context"
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/user"
	"github.com/your-org/flooring-store/internal/infrastructure/database/postgres"
	"github.com/your-org/flooring-store/internal/pkg/auth"
	"github.com/your-org/flooring-store/internal/pkg/logger"
)

func main() {
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password")
	name := flag.String("name", "Store Admin", "admin display name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.Logging)

	if *email == "" || *password == "" {
		log.Fatal("usage: createadmin -email <email> -password <password> [-name <name>]")
	}
	if err := auth.NewPasswordManager(cfg).ValidatePassword(*password); err != nil {
		log.WithError(err).Fatal("password rejected")
	}

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := postgres.NewMigration(db.GetDB(), log).RunAutoMigrations(); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := user.NewService(db.GetDB(), cfg, log).EnsureAdmin(ctx, *email, *password, *name)
	if err != nil {
		log.WithError(err).Fatal("failed to create admin")
	}
	if !admin.IsAdmin {
		log.WithField("email", admin.Email).Warn("account exists but is not an admin; promote it in the database")
		return
	}
	log.WithFields(logrus.Fields{"id": admin.ID, "email": admin.Email}).Info("admin ready")
}
