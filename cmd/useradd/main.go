// Command useradd creates an API user, usually the first administrator.
//
//	go run ./cmd/useradd -name Admin -email admin@example.com -password secret123 -admin
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/Dosada05/team-roster/config"
	"github.com/Dosada05/team-roster/db"
	"github.com/Dosada05/team-roster/repositories"
	"github.com/Dosada05/team-roster/services"
)

func main() {
	name := flag.String("name", "", "display name of the user")
	email := flag.String("email", "", "login email")
	password := flag.String("password", "", "password, at least 8 letters or digits")
	admin := flag.Bool("admin", false, "grant administrator rights")
	flag.Parse()

	if err := run(*name, *email, *password, *admin); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(name, email, password string, admin bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, cfg.DBConnectTimeout)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	ctx := context.Background()
	if err := db.EnsureSchema(ctx, dbConn); err != nil {
		return err
	}

	authService := services.NewAuthService(
		repositories.NewPostgresUserRepository(dbConn),
		repositories.NewPostgresAccessTokenRepository(dbConn),
		nil,
		services.AuthConfig{JWTSecret: []byte(cfg.JWTSecretKey), TokenTTL: cfg.TokenTTL, Logger: slog.Default()},
	)

	user, err := authService.CreateUser(ctx, services.CreateUserInput{
		Name:     name,
		Email:    email,
		Password: password,
		IsAdmin:  admin,
	})
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			fields := make([]string, 0, len(verr.Fields))
			for field := range verr.Fields {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			for _, field := range fields {
				for _, msg := range verr.Fields[field] {
					fmt.Fprintln(os.Stderr, msg)
				}
			}
			return errors.New("the user was not created")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("The user %s (id:%d) has been created successfully.\n", user.Name, user.ID)
	return nil
}
