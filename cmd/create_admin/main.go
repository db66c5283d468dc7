package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/database"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/repositories"
)

// Seeds or resets an admin account. Passwords only ever enter the database
// as bcrypt hashes.
func main() {
	username := flag.String("username", "", "admin username")
	password := flag.String("password", "", "admin password")
	name := flag.String("name", "", "display name (optional)")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("usage: create_admin -username <user> -password <pass> [-name <name>]")
	}

	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}

	dbcon, err := database.ConnStrFromEnv()
	if err != nil {
		log.Fatalf("incomplete DB configuration: %v", err)
	}
	db, err := database.Connect(dbcon)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hashing failed: %v", err)
	}

	ctx := context.Background()
	repo := repositories.NewAdminUserRepository(db)

	existing, err := repo.FindByUsername(ctx, *username)
	if err != nil {
		log.Fatalf("lookup failed: %v", err)
	}

	user := existing
	if user == nil {
		user = &models.AdminUser{Username: *username}
	}
	user.PasswordHash = string(hash)
	if *name != "" {
		n := *name
		user.Name = &n
	}

	if err := repo.SaveUser(ctx, user); err != nil {
		log.Fatalf("save failed: %v", err)
	}

	if existing == nil {
		log.Printf("admin %q created (id=%d)", *username, user.Id)
	} else {
		log.Printf("admin %q updated (id=%d)", *username, user.Id)
	}
}
