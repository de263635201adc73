package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Email    EmailConfig
	Stripe   StripeConfig
}

type ServerConfig struct {
	Port    string
	Env     string
	BaseURL string
}

type DatabaseConfig struct {
	// URL may contain a <PASSWORD> placeholder substituted with Password.
	URL      string
	Password string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret           string
	ExpiryMinutes    int
	CookieExpiryDays int
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type StripeConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
}

// Load reads .env into the process environment and builds the Config once.
// Components receive it explicitly; nothing reads the environment later.
func Load() *Config {
	// Missing .env is fine, plain environment variables still apply.
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("SERVER_BASE_URL", "http://localhost:8080")
	viper.SetDefault("DATABASE_URL", "postgres://postgres:<PASSWORD>@localhost:5432/bookshop?sslmode=disable")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_EXPIRY_MINUTES", 90*24*60)
	viper.SetDefault("JWT_COOKIE_EXPIRY_DAYS", 90)
	viper.SetDefault("EMAIL_PORT", 587)

	return &Config{
		Server: ServerConfig{
			Port:    viper.GetString("SERVER_PORT"),
			Env:     viper.GetString("SERVER_ENV"),
			BaseURL: viper.GetString("SERVER_BASE_URL"),
		},
		Database: DatabaseConfig{
			URL:      viper.GetString("DATABASE_URL"),
			Password: viper.GetString("DATABASE_PASSWORD"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:           viper.GetString("JWT_SECRET"),
			ExpiryMinutes:    viper.GetInt("JWT_EXPIRY_MINUTES"),
			CookieExpiryDays: viper.GetInt("JWT_COOKIE_EXPIRY_DAYS"),
		},
		Email: EmailConfig{
			Host:     viper.GetString("EMAIL_HOST"),
			Port:     viper.GetInt("EMAIL_PORT"),
			Username: viper.GetString("EMAIL_USERNAME"),
			Password: viper.GetString("EMAIL_PASSWORD"),
			From:     viper.GetString("EMAIL_FROM"),
		},
		Stripe: StripeConfig{
			SecretKey:  viper.GetString("STRIPE_SECRET_KEY"),
			SuccessURL: viper.GetString("STRIPE_SUCCESS_URL"),
			CancelURL:  viper.GetString("STRIPE_CANCEL_URL"),
		},
	}
}

// DSN returns the connection string with the password placeholder resolved.
func (c DatabaseConfig) DSN() string {
	return strings.Replace(c.URL, "<PASSWORD>", c.Password, 1)
}

// IsProduction reports whether the server runs in production mode. Error
// responses hide internal detail when it does.
func (c ServerConfig) IsProduction() bool {
	return c.Env == "production"
}
