package database

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	_ "github.com/lib/pq"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnStrFromEnv assembles the postgres DSN from the DB_* environment
// variables. Every binary connects through this, so they cannot drift on
// host or port handling. DB_PORT is optional; the driver default applies
// when it is unset.
func ConnStrFromEnv() (string, error) {
	host := os.Getenv("DB_HOSTNAME")
	user := os.Getenv("DB_USERNAME")
	dbname := os.Getenv("DB_DBNAME")
	if host == "" || user == "" || dbname == "" {
		return "", fmt.Errorf("missing DB env vars; need DB_HOSTNAME, DB_USERNAME, DB_DBNAME")
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		host += ":" + port
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   dbname,
	}
	u.User = url.UserPassword(user, os.Getenv("DB_PASSWORD"))

	q := u.Query()
	if schema := strings.TrimSpace(os.Getenv("DB_SCHEMA")); schema != "" {
		q.Set("search_path", schema)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func Connect(connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Vehicle{},
		&models.VehicleFeature{},
		&models.VehicleImage{},
		&models.AdminUser{},
	); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}
