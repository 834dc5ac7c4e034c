package config

import (
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
)

// DatabaseConfig carries the connection parameters for the MySQL server.
type DatabaseConfig struct {
	User     string
	Password string
	Host     string
	Name     string
}

// Config is the full application configuration. It is loaded once at
// startup and passed explicitly to whatever needs it; nothing reads the
// environment after Load has run.
type Config struct {
	Port       string
	GinLogging bool
	Database   DatabaseConfig
}

// Load populates a Config from the environment. A .env file in the working
// directory is read first, if present, without overriding variables that
// are already set.
func Load() Config {
	// Ignore a missing .env file; the environment alone is fine.
	_ = godotenv.Load()

	return Config{
		Port:       getEnv("PORT", "8080"),
		GinLogging: getEnv("GIN_LOGGING", "on") != "off",
		Database: DatabaseConfig{
			User:     getEnv("DBUSER", ""),
			Password: getEnv("DBPWD", ""),
			Host:     getEnv("DBHOST", "localhost"),
			Name:     getEnv("DBNAME", "test"),
		},
	}
}

// getEnv returns the value of the environment variable or the fallback if
// the variable is unset or empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// DSN renders the MySQL data source name. parseTime makes the driver scan
// DATE and DATETIME columns into time.Time.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", d.User, d.Password, d.Host, d.Name)
}

// OpenDatabase connects to the configured MySQL server and verifies the
// connection with a ping.
func OpenDatabase(d DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("mysql", d.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}
