package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scosmb/license-console/internal/domain/admin"
	"github.com/scosmb/license-console/internal/storage/postgres"
	"go.uber.org/zap"
)

// Bootstrap CLI: creates the first active super_admin so the console is
// administrable before any login exists.
func main() {
	username := flag.String("username", "", "Username for the new super admin")
	email := flag.String("email", "", "Email for the new super admin")
	password := flag.String("password", "", "Password for the new super admin")
	flag.Parse()

	if *username == "" || *email == "" || *password == "" {
		log.Fatal("-username, -email and -password are all required")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	repo := postgres.NewAdminRepository(pool, logger)

	user := &admin.User{
		Username: *username,
		Email:    *email,
		Role:     admin.RoleSuperAdmin,
		IsActive: true,
	}
	if err := user.SetPassword(*password); err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	insertedID, err := repo.Create(context.Background(), user)
	if err != nil {
		log.Fatalf("Failed to create super admin: %v", err)
	}

	fmt.Printf("Super admin created:\n  id:       %s\n  username: %s\n  email:    %s\n", insertedID, *username, *email)
}
