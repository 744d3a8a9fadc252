package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Roster sources
const (
	SourceLiveKit = "livekit"
	SourceZoomApp = "zoomapp"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Roster   RosterConfig
	LiveKit  LiveKitConfig
	ZoomApp  ZoomAppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development" validate:"oneof=development staging production"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10" validate:"gt=0"`
}

// RosterConfig holds the roster engine settings
type RosterConfig struct {
	MeetingID      string        `envconfig:"MEETING_ID" validate:"required"`
	Source         string        `envconfig:"ROSTER_SOURCE" default:"livekit" validate:"oneof=livekit zoomapp"`
	PollInterval   time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	SpeakingTick   time.Duration `envconfig:"SPEAKING_TICK" default:"1s"`
	FetchTimeout   time.Duration `envconfig:"FETCH_TIMEOUT" default:"3s"`
	ChangeLogSize  int           `envconfig:"CHANGELOG_SIZE" default:"200" validate:"gt=0"`
	SinkQueueSize  int           `envconfig:"SINK_QUEUE_SIZE" default:"64" validate:"gt=0"`
	ZeroHostPolicy string        `envconfig:"ZERO_HOST_POLICY" default:"keep" validate:"oneof=keep clear"`
}

// LiveKitConfig holds LiveKit configuration
type LiveKitConfig struct {
	URL       string `envconfig:"LIVEKIT_URL"`
	APIKey    string `envconfig:"LIVEKIT_API_KEY"`
	APISecret string `envconfig:"LIVEKIT_API_SECRET"`
	UseMock   bool   `envconfig:"LIVEKIT_USE_MOCK" default:"false"`
}

// ZoomAppConfig holds the settings of the in-meeting Zoom App push source
type ZoomAppConfig struct {
	PushSecret     string        `envconfig:"ZOOMAPP_PUSH_SECRET"`
	TokenExpiry    time.Duration `envconfig:"ZOOMAPP_TOKEN_EXPIRY" default:"12h"`
	SnapshotMaxAge time.Duration `envconfig:"ZOOMAPP_SNAPSHOT_MAX_AGE" default:"30s"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled     bool   `envconfig:"DB_ENABLED" default:"false"`
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"meeting_roster"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled      bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host         string `envconfig:"REDIS_HOST" default:"localhost"`
	Port         string `envconfig:"REDIS_PORT" default:"6379"`
	Password     string `envconfig:"REDIS_PASSWORD"`
	DB           int    `envconfig:"REDIS_DB" default:"0"`
	EventChannel string `envconfig:"REDIS_EVENT_CHANNEL" default:"roster:changes"`
	SinkChannel  string `envconfig:"REDIS_SINK_CHANNEL" default:"roster:events"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"meeting-roster"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
	ReportPrefix    string `envconfig:"STORAGE_REPORT_PREFIX" default:"reports"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	return FromEnv()
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	config := &Config{}
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Roster.SpeakingTick <= 0 {
		return fmt.Errorf("SPEAKING_TICK must be positive")
	}
	if c.Roster.PollInterval < c.Roster.SpeakingTick {
		return fmt.Errorf("POLL_INTERVAL (%s) must not be shorter than SPEAKING_TICK (%s)", c.Roster.PollInterval, c.Roster.SpeakingTick)
	}
	if c.Roster.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}

	if c.Roster.Source == SourceLiveKit && !c.LiveKit.UseMock {
		if c.LiveKit.URL == "" {
			return fmt.Errorf("LIVEKIT_URL is required")
		}
		if c.LiveKit.APIKey == "" || c.LiveKit.APISecret == "" {
			return fmt.Errorf("LIVEKIT_API_KEY and LIVEKIT_API_SECRET are required")
		}
	}

	if c.Roster.Source == SourceZoomApp {
		if len(c.ZoomApp.PushSecret) < 16 {
			return fmt.Errorf("ZOOMAPP_PUSH_SECRET must be at least 16 characters")
		}
		if c.ZoomApp.TokenExpiry <= 0 {
			return fmt.Errorf("ZOOMAPP_TOKEN_EXPIRY must be positive")
		}
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
