package config

import (
	"time" // Cache TTL

	"github.com/joho/godotenv"             // For loading .env files
	"github.com/kelseyhightower/envconfig" // Typed environment decoding
)

// Config holds the application configuration
type Config struct {
	AppPort    string `envconfig:"APP_PORT" default:"8080"`       // Application port
	DBUser     string `envconfig:"DB_USER"`                       // Database user
	DBPassword string `envconfig:"DB_PASSWORD"`                   // Database password
	DBHost     string `envconfig:"DB_HOST" default:"127.0.0.1"`   // Database host
	DBPort     string `envconfig:"DB_PORT" default:"3306"`        // Database port
	DBName     string `envconfig:"DB_NAME" default:"ngo_tracker"` // Database name
	JWTSecret  string `envconfig:"JWT_SECRET"`                    // JWT secret key, required by the server
	RedisAddr  string `envconfig:"REDIS_ADDR"`                    // Redis server address, empty disables caching
	RedisPass  string `envconfig:"REDIS_PASS"`                    // Redis password
	RedisDB    int    `envconfig:"REDIS_DB"`                      // Redis database number
	IsProd     bool   `envconfig:"IS_PROD"`                       // Is production environment

	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"60s"` // Lifetime of cached list responses

	SolanaRPCURL   string `envconfig:"SOLANA_RPC_URL" default:"http://127.0.0.1:8899"` // Wallet bridge RPC endpoint
	SolanaPayerKey string `envconfig:"SOLANA_PAYER_KEY"`                               // Base58 private key of the signing wallet
	NativeCurrency string `envconfig:"NATIVE_CURRENCY" default:"SOL"`                  // Symbol stored on donations

	AMQPURL      string `envconfig:"AMQP_URL"`                           // Empty disables event publishing
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"ngo.events"` // Topic exchange for domain events
}

// DSN builds the MySQL data source name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

// LoadConfig loads configuration from the environment, after an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
