/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the payment-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort               string  `mapstructure:"SERVER_PORT"`
	DatabaseURL              string  `mapstructure:"DATABASE_URL"`
	RabbitMQURL              string  `mapstructure:"RABBITMQ_URL"`
	RedisURL                 string  `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix     string  `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	UserManagementServiceURL string  `mapstructure:"USER_MANAGEMENT_SERVICE_URL"`
	SessionManagerURL        string  `mapstructure:"SESSION_MANAGER_URL"`
	InternalAPIKey           string  `mapstructure:"INTERNAL_API_KEY"`
	RewardRedeemRate         float64 `mapstructure:"REWARD_REDEEM_RATE"`
	RewardEarnRate           float64 `mapstructure:"REWARD_EARN_RATE"`
	ReconcilerWorkers        int     `mapstructure:"RECONCILER_WORKERS"`
	ReconcilerQueueSize      int     `mapstructure:"RECONCILER_QUEUE_SIZE"`
	PaymentRateLimitPerMin   int     `mapstructure:"PAYMENT_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values. The redeem rate is points per currency unit (200
	// points buy one unit of discount); the earn rate is currency units per
	// point (1 point earned per 10 units spent).
	viper.SetDefault("SERVER_PORT", "8084")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "payment_service:rate_limit")
	viper.SetDefault("REWARD_REDEEM_RATE", 200.0)
	viper.SetDefault("REWARD_EARN_RATE", 10.0)
	viper.SetDefault("RECONCILER_WORKERS", 4)
	viper.SetDefault("RECONCILER_QUEUE_SIZE", 64)
	viper.SetDefault("PAYMENT_RATE_LIMIT_PER_MINUTE", 0)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("USER_MANAGEMENT_SERVICE_URL")
	_ = viper.BindEnv("SESSION_MANAGER_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "PAYMENT_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("REWARD_REDEEM_RATE")
	_ = viper.BindEnv("REWARD_EARN_RATE")
	_ = viper.BindEnv("RECONCILER_WORKERS")
	_ = viper.BindEnv("RECONCILER_QUEUE_SIZE")
	_ = viper.BindEnv("PAYMENT_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	config.InternalAPIKey = strings.TrimSpace(config.InternalAPIKey)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.UserManagementServiceURL = strings.TrimSpace(config.UserManagementServiceURL)
	config.SessionManagerURL = strings.TrimSpace(config.SessionManagerURL)

	if config.RewardRedeemRate <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive redeem rate configured; using default\" rate=%f", config.RewardRedeemRate)
		config.RewardRedeemRate = 200.0
	}
	if config.RewardEarnRate <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive earn rate configured; using default\" rate=%f", config.RewardEarnRate)
		config.RewardEarnRate = 10.0
	}
	if config.ReconcilerWorkers <= 0 {
		config.ReconcilerWorkers = 4
	}
	if config.ReconcilerQueueSize <= 0 {
		config.ReconcilerQueueSize = 64
	}
	if config.PaymentRateLimitPerMin < 0 {
		log.Printf("level=warn component=config msg=\"negative payment rate limit configured; disabling\" limit=%d", config.PaymentRateLimitPerMin)
		config.PaymentRateLimitPerMin = 0
	}

	return
}
