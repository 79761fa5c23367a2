package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Env         string `mapstructure:"ENV"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Stripe (card rail).
	StripeKey           string `mapstructure:"STRIPE_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	// Cloudinary (receipt image storage).
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`

	// Fee policy, in basis points. The snapshot taken at invoice creation
	// is what settlement uses, so changing these never rewrites history.
	PlatformFeeBps    int64 `mapstructure:"PLATFORM_FEE_BPS"`
	WorkStartedFeeBps int64 `mapstructure:"WORK_STARTED_FEE_BPS"`
	FeePolicyVersion  int   `mapstructure:"FEE_POLICY_VERSION"`

	// Invoice settings.
	InvoiceNumberPrefix string `mapstructure:"INVOICE_NUMBER_PREFIX"`
	InvoiceDueDays      int    `mapstructure:"INVOICE_DUE_DAYS"`

	// Overdue sweep interval in minutes.
	OverdueSweepMinutes int `mapstructure:"OVERDUE_SWEEP_MINUTES"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("PLATFORM_FEE_BPS", 1500)
	viper.SetDefault("WORK_STARTED_FEE_BPS", 4250)
	viper.SetDefault("FEE_POLICY_VERSION", 1)
	viper.SetDefault("INVOICE_NUMBER_PREFIX", "INV")
	viper.SetDefault("INVOICE_DUE_DAYS", 14)
	viper.SetDefault("OVERDUE_SWEEP_MINUTES", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// FeePolicy builds the current fee policy snapshot from configuration.
func FeePolicy() (version int, platformBps, workStartedBps int64) {
	return AppConfig.FeePolicyVersion, AppConfig.PlatformFeeBps, AppConfig.WorkStartedFeeBps
}
