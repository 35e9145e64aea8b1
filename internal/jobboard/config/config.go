// Package config loads service settings from a YAML file overlaid by
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds every setting the service needs. It is built once in main and
// passed to the components that need it.
type Config struct {
	HTTPPort   int    `yaml:"HTTP_PORT" mapstructure:"HTTP_PORT"`
	GRPCPort   int    `yaml:"GRPC_PORT" mapstructure:"GRPC_PORT"`
	CORSOrigin string `yaml:"CORS_ORIGIN" mapstructure:"CORS_ORIGIN"`
	LogLevel   string `yaml:"LOG_LEVEL" mapstructure:"LOG_LEVEL"`

	DBDriver       string `yaml:"DB_DRIVER" mapstructure:"DB_DRIVER"`
	DBHost         string `yaml:"DB_HOST" mapstructure:"DB_HOST"`
	DBPort         int    `yaml:"DB_PORT" mapstructure:"DB_PORT"`
	DBUser         string `yaml:"DB_USER" mapstructure:"DB_USER"`
	DBPassword     string `yaml:"DB_PASSWORD" mapstructure:"DB_PASSWORD"`
	DBName         string `yaml:"DB_NAME" mapstructure:"DB_NAME"`
	DBSSLMode      string `yaml:"DB_SSLMODE" mapstructure:"DB_SSLMODE"`
	DBPath         string `yaml:"DB_PATH" mapstructure:"DB_PATH"`
	DBMaxOpenConns int    `yaml:"DB_MAX_OPEN_CONNS" mapstructure:"DB_MAX_OPEN_CONNS"`

	// JWTSecret signs session tokens. Required; there is no default.
	JWTSecret  string        `yaml:"JWT_SECRET" mapstructure:"JWT_SECRET"`
	TokenTTL   time.Duration `yaml:"TOKEN_TTL" mapstructure:"TOKEN_TTL"`
	BcryptCost int           `yaml:"BCRYPT_COST" mapstructure:"BCRYPT_COST"`

	// KafkaBrokers may be empty, in which case events are discarded.
	KafkaBrokers []string `yaml:"KAFKA_BROKERS" mapstructure:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC" mapstructure:"TOPIC"`

	// S3Bucket empty disables logo and banner uploads.
	S3Bucket        string `yaml:"S3_BUCKET" mapstructure:"S3_BUCKET"`
	S3Region        string `yaml:"S3_REGION" mapstructure:"S3_REGION"`
	S3Endpoint      string `yaml:"S3_ENDPOINT" mapstructure:"S3_ENDPOINT"`
	S3AccessKey     string `yaml:"S3_ACCESS_KEY" mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey     string `yaml:"S3_SECRET_KEY" mapstructure:"S3_SECRET_KEY"`
	S3PublicBaseURL string `yaml:"S3_PUBLIC_BASE_URL" mapstructure:"S3_PUBLIC_BASE_URL"`

	OTPTTL         time.Duration `yaml:"OTP_TTL" mapstructure:"OTP_TTL"`
	OTPMaxAttempts int           `yaml:"OTP_MAX_ATTEMPTS" mapstructure:"OTP_MAX_ATTEMPTS"`

	// SMTPHost empty logs email codes instead of sending them.
	SMTPHost     string `yaml:"SMTP_HOST" mapstructure:"SMTP_HOST"`
	SMTPPort     int    `yaml:"SMTP_PORT" mapstructure:"SMTP_PORT"`
	SMTPUser     string `yaml:"SMTP_USER" mapstructure:"SMTP_USER"`
	SMTPPassword string `yaml:"SMTP_PASSWORD" mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `yaml:"SMTP_FROM" mapstructure:"SMTP_FROM"`
}

// Default returns the settings used when neither the file nor the
// environment provides a value.
func Default() Config {
	return Config{
		HTTPPort:       8080,
		GRPCPort:       50051,
		CORSOrigin:     "http://localhost:5173",
		LogLevel:       "info",
		DBDriver:       DriverPostgres,
		DBHost:         "localhost",
		DBPort:         5432,
		DBUser:         "postgres",
		DBName:         "jobboard",
		DBSSLMode:      "disable",
		DBPath:         "jobboard.db",
		DBMaxOpenConns: 10,
		TokenTTL:       7 * 24 * time.Hour,
		BcryptCost:     10,
		Topic:          "jobboard-events",
		S3Region:       "us-east-1",
		OTPTTL:         5 * time.Minute,
		OTPMaxAttempts: 5,
		SMTPPort:       587,
	}
}

// Load reads the YAML file at path (a missing file is not an error), then
// lets environment variables override any key. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(file, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range cfg.settings() {
		v.SetDefault(key, value)
	}

	var out Config
	if err := v.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// settings flattens cfg into the keys viper resolves against the environment.
func (c Config) settings() map[string]any {
	return map[string]any{
		"HTTP_PORT":          c.HTTPPort,
		"GRPC_PORT":          c.GRPCPort,
		"CORS_ORIGIN":        c.CORSOrigin,
		"LOG_LEVEL":          c.LogLevel,
		"DB_DRIVER":          c.DBDriver,
		"DB_HOST":            c.DBHost,
		"DB_PORT":            c.DBPort,
		"DB_USER":            c.DBUser,
		"DB_PASSWORD":        c.DBPassword,
		"DB_NAME":            c.DBName,
		"DB_SSLMODE":         c.DBSSLMode,
		"DB_PATH":            c.DBPath,
		"DB_MAX_OPEN_CONNS":  c.DBMaxOpenConns,
		"JWT_SECRET":         c.JWTSecret,
		"TOKEN_TTL":          c.TokenTTL,
		"BCRYPT_COST":        c.BcryptCost,
		"KAFKA_BROKERS":      c.KafkaBrokers,
		"TOPIC":              c.Topic,
		"S3_BUCKET":          c.S3Bucket,
		"S3_REGION":          c.S3Region,
		"S3_ENDPOINT":        c.S3Endpoint,
		"S3_ACCESS_KEY":      c.S3AccessKey,
		"S3_SECRET_KEY":      c.S3SecretKey,
		"S3_PUBLIC_BASE_URL": c.S3PublicBaseURL,
		"OTP_TTL":            c.OTPTTL,
		"OTP_MAX_ATTEMPTS":   c.OTPMaxAttempts,
		"SMTP_HOST":          c.SMTPHost,
		"SMTP_PORT":          c.SMTPPort,
		"SMTP_USER":          c.SMTPUser,
		"SMTP_PASSWORD":      c.SMTPPassword,
		"SMTP_FROM":          c.SMTPFrom,
	}
}

// Validate reports the first setting that would make the service unsafe or
// unable to start.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: TOKEN_TTL must be positive")
	}
	if c.OTPTTL <= 0 {
		return errors.New("config: OTP_TTL must be positive")
	}
	if c.OTPMaxAttempts <= 0 {
		return errors.New("config: OTP_MAX_ATTEMPTS must be positive")
	}
	if c.SMTPHost != "" && c.SMTPFrom == "" {
		return errors.New("config: SMTP_FROM must be set when SMTP_HOST is")
	}
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// Brokers returns the configured Kafka brokers with blanks removed.
func (c *Config) Brokers() []string {
	out := make([]string, 0, len(c.KafkaBrokers))
	for _, b := range c.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
