package cmd

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config carries the deployment configuration for the dispatch engine.
// Values come from the environment, optionally seeded from an env file.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"dispatch"`
	DBSslMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Assignment behavior.
	ResponseTimeout       time.Duration `env:"RESPONSE_TIMEOUT" envDefault:"30s"`
	MaxAssignmentAttempts int           `env:"MAX_ASSIGNMENT_ATTEMPTS" envDefault:"5"`

	// Sweep cadence, in cron-with-seconds syntax.
	DispatchSweepSpec   string `env:"DISPATCH_SWEEP_SPEC" envDefault:"* * * * * *"`
	StaleOfferSweepSpec string `env:"STALE_OFFER_SWEEP_SPEC" envDefault:"*/10 * * * * *"`

	// The single pickup point of this deployment.
	RestaurantLat float64 `env:"RESTAURANT_LAT" envDefault:"52.52"`
	RestaurantLon float64 `env:"RESTAURANT_LON" envDefault:"13.405"`

	// Pricing.
	DeliveryBasePrice  float64 `env:"DELIVERY_BASE_PRICE" envDefault:"15"`
	DeliveryPricePerKm float64 `env:"DELIVERY_PRICE_PER_KM" envDefault:"0.80"`
	CustomerFeeMarkup  float64 `env:"CUSTOMER_FEE_MARKUP" envDefault:"0"`

	// Routing.
	AverageSpeedKmh float64 `env:"AVERAGE_SPEED_KMH" envDefault:"30"`
	OSRMBaseURL     string  `env:"OSRM_BASE_URL"`

	// Delivery statuses couriers may skip reporting, by name.
	ProgressSkipStatuses []string `env:"PROGRESS_SKIP_STATUSES" envSeparator:","`

	// Push gateway.
	PushGatewayURL string `env:"PUSH_GATEWAY_URL"`
	PushAPIKey     string `env:"PUSH_API_KEY"`
}

// DSN builds the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// LoadConfig parses the configuration from the environment. The --env-file
// flag points at an optional dotenv file loaded first; missing files are
// only an error when the flag was set explicitly.
func LoadConfig() (Config, error) {
	envFile := pflag.String("env-file", ".env", "path to an env file loaded before parsing")
	pflag.Parse()

	if err := godotenv.Load(*envFile); err != nil && pflag.CommandLine.Changed("env-file") {
		return Config{}, fmt.Errorf("error loading env file %s: %w", *envFile, err)
	}

	var config Config
	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}

	return config, nil
}
