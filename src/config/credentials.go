package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// MCredentials holds the broker account secrets. They come from the
// environment (optionally seeded from a .env file), never from YAML.
type MCredentials struct {
	APIKey     string `envconfig:"API_KEY" required:"true"`
	ClientCode string `envconfig:"CLIENT_CODE" required:"true"`
	Password   string `envconfig:"PASSWORD" required:"true"`
	TOTPSecret string `envconfig:"TOTP_SECRET" required:"true"`
}

// LoadCredentials reads SMARTAPI_* variables from the environment. A missing
// .env file is not an error; missing variables are.
func LoadCredentials() (*MCredentials, error) {
	_ = godotenv.Load()

	var creds MCredentials
	if err := envconfig.Process("SMARTAPI", &creds); err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}
	return &creds, nil
}
