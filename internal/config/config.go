/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables or a
 * local .env file. The resulting Config struct is built once at startup and
 * handed to constructors; nothing reads the environment mid-request.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the merchant service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort             string `mapstructure:"SERVER_PORT"`
	DatabaseURL            string `mapstructure:"DATABASE_URL"`
	RabbitMQURL            string `mapstructure:"RABBITMQ_URL"`
	RedisURL               string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix   string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	JWTSecret              string `mapstructure:"JWT_SECRET"`
	SessionTTLHours        int    `mapstructure:"SESSION_TTL_HOURS"`
	OTPTTLMinutes          int    `mapstructure:"OTP_TTL_MINUTES"`
	OTPDigits              int    `mapstructure:"OTP_DIGITS"`
	OTPBypassCode          string `mapstructure:"OTP_BYPASS_CODE"`
	AppEnv                 string `mapstructure:"APP_ENV"`
	SMTPHost               string `mapstructure:"SMTP_HOST"`
	SMTPPort               string `mapstructure:"SMTP_PORT"`
	SMTPUsername           string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword           string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom               string `mapstructure:"SMTP_FROM"`
	UploadDir              string `mapstructure:"UPLOAD_DIR"`
	AuthRateLimitPerMinute int    `mapstructure:"AUTH_RATE_LIMIT_PER_MINUTE"`
}

// IsDevelopment reports whether the deployment runs in development mode. Only
// development mode may enable the OTP bypass.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "development")
}

// LoadConfig reads configuration from environment variables or an optional
// .env file and applies defaults.
func LoadConfig() (config Config, err error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SESSION_TTL_HOURS", 168) // 7 days
	viper.SetDefault("OTP_TTL_MINUTES", 10)
	viper.SetDefault("OTP_DIGITS", 6)
	viper.SetDefault("OTP_BYPASS_CODE", "123456")
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "productr:rate_limit")
	viper.SetDefault("AUTH_RATE_LIMIT_PER_MINUTE", 0)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("SESSION_TTL_HOURS")
	_ = viper.BindEnv("OTP_TTL_MINUTES")
	_ = viper.BindEnv("OTP_DIGITS")
	_ = viper.BindEnv("OTP_BYPASS_CODE")
	_ = viper.BindEnv("APP_ENV")
	_ = viper.BindEnv("SMTP_HOST")
	_ = viper.BindEnv("SMTP_PORT")
	_ = viper.BindEnv("SMTP_USERNAME")
	_ = viper.BindEnv("SMTP_PASSWORD")
	_ = viper.BindEnv("SMTP_FROM")
	_ = viper.BindEnv("UPLOAD_DIR")
	_ = viper.BindEnv("AUTH_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	// A platform-provided PORT (e.g. Railway/Render) takes precedence.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}

	if config.SessionTTLHours <= 0 {
		config.SessionTTLHours = 168
	}
	if config.OTPTTLMinutes <= 0 {
		config.OTPTTLMinutes = 10
	}
	if config.OTPDigits <= 0 {
		config.OTPDigits = 6
	}

	if strings.TrimSpace(config.JWTSecret) == "" {
		return config, errors.New("JWT_SECRET must be set")
	}

	return config, nil
}
