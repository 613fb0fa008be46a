package config

import (
	"time" // Token lifetime

	"github.com/joho/godotenv"             // For loading .env files
	"github.com/kelseyhightower/envconfig" // For binding environment variables
)

// Store drivers accepted in DB_DRIVER
const (
	DriverMySQL  = "mysql"  // gorm + MySQL
	DriverMemory = "memory" // In-process store, for local runs
)

// Config holds the application configuration
type Config struct {
	AppPort    string `envconfig:"APP_PORT" default:"3000"`     // Application port
	DBDriver   string `envconfig:"DB_DRIVER" default:"mysql"`   // Store driver: mysql or memory
	DBUser     string `envconfig:"DB_USER"`                     // Database user
	DBPassword string `envconfig:"DB_PASSWORD"`                 // Database password
	DBHost     string `envconfig:"DB_HOST" default:"127.0.0.1"` // Database host
	DBPort     string `envconfig:"DB_PORT" default:"3306"`      // Database port
	DBName     string `envconfig:"DB_NAME" default:"etuition"`  // Database name

	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`  // JWT secret key
	JWTExpireMin int    `envconfig:"JWT_EXPIRE_MIN" default:"60"` // Token lifetime in minutes

	RedisAddr string `envconfig:"REDIS_ADDR"` // Redis server address, empty disables the cache
	RedisPass string `envconfig:"REDIS_PASS"` // Redis password
	RedisDB   int    `envconfig:"REDIS_DB"`   // Redis database number

	StripeSecret        string `envconfig:"STRIPE_SECRET"`                               // Stripe secret API key
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`                       // Signing secret for /webhooks/stripe
	StripeCurrency      string `envconfig:"STRIPE_CURRENCY" default:"usd"`               // Checkout currency
	SiteDomain          string `envconfig:"SITE_DOMAIN" default:"http://localhost:5173"` // Front-end origin for redirects

	RabbitURL       string `envconfig:"RABBIT_URL"`                                  // RabbitMQ URL, empty disables events
	PaymentExchange string `envconfig:"PAYMENT_EXCHANGE" default:"payment.exchange"` // Topic exchange for payment events

	IsProd bool `envconfig:"IS_PROD"` // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// TokenTTL is the lifetime of issued access tokens
func (c *Config) TokenTTL() time.Duration {
	if c.JWTExpireMin <= 0 {
		return time.Hour
	}
	return time.Duration(c.JWTExpireMin) * time.Minute
}

// DSN builds the MySQL data source name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}
