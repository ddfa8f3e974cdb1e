package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server  ServerConfig
	Auth    AuthConfig
	MongoDB MongoDBConfig
	Uploads UploadConfig
	SMTP    SMTPConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// AuthConfig carries the single administrator identity and the token
// signing secret. All three are required; the server refuses to start
// without them rather than running with an empty secret.
type AuthConfig struct {
	JWTSecret         string
	AdminEmail        string
	AdminPasswordHash string
}

// MongoDBConfig holds settings for the quotation document store.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// UploadConfig holds the transient storage location for product pictures.
type UploadConfig struct {
	Dir string
}

// SMTPConfig contains the mail-transport settings for admin notifications.
// The group is optional: an empty Host disables outbound mail.
type SMTPConfig struct {
	Host        string
	Port        string
	Username    string
	Password    string
	NotifyEmail string
}

// Enabled reports whether a mail transport has been configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			AdminEmail:        os.Getenv("ADMIN_EMAIL"),
			AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "cotacoes"),
		},
		Uploads: UploadConfig{
			Dir: getenvWithDefault("UPLOAD_DIR", "./uploads"),
		},
		SMTP: SMTPConfig{
			Host:        os.Getenv("SMTP_HOST"),
			Port:        getenvWithDefault("SMTP_PORT", "587"),
			Username:    os.Getenv("SMTP_USER"),
			Password:    os.Getenv("SMTP_PASSWORD"),
			NotifyEmail: os.Getenv("NOTIFY_EMAIL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Auth.JWTSecret == "":
		return errors.New("JWT_SECRET must be provided")
	case c.Auth.AdminEmail == "":
		return errors.New("ADMIN_EMAIL must be provided")
	case c.Auth.AdminPasswordHash == "":
		return errors.New("ADMIN_PASSWORD_HASH must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}

	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	if c.Uploads.Dir == "" {
		return errors.New("UPLOAD_DIR must not be empty")
	}

	if c.SMTP.Enabled() {
		switch {
		case c.SMTP.Port == "":
			return errors.New("SMTP_PORT must be provided when SMTP_HOST is set")
		case c.SMTP.NotifyEmail == "":
			return errors.New("NOTIFY_EMAIL must be provided when SMTP_HOST is set")
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
