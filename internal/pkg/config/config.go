package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	DB      DBConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	CORS    CORSConfig
	Log     LogConfig
	JWT     JWTConfig
	Booking BookingConfig
	Worker  WorkerConfig
}

type ServerConfig struct {
	Port            string        `envconfig:"PORT" required:"true"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

type StorageDriver string

const (
	StoragePostgres StorageDriver = "postgres"
	StorageMemory   StorageDriver = "memory"
)

type StorageConfig struct {
	Driver StorageDriver `envconfig:"STORAGE_DRIVER" default:"postgres"`
	// SeedFile is a JSON file of studio types, rooms and services loaded at
	// startup. Required for the memory driver, optional for postgres.
	SeedFile string `envconfig:"STORAGE_SEED_FILE"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	DBName   string `envconfig:"DB_NAME"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"20"`
	MinConns int32  `envconfig:"DB_MIN_CONNS" default:"2"`
}

// RedisConfig enables the day plan cache when Addr is set.
type RedisConfig struct {
	Addr         string        `envconfig:"REDIS_ADDR"`
	Password     string        `envconfig:"REDIS_PASSWORD"`
	DB           int           `envconfig:"REDIS_DB" default:"0"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
	PlanTTL      time.Duration `envconfig:"REDIS_PLAN_TTL" default:"10m"`
}

// KafkaConfig enables the booking event relay when Brokers is set.
type KafkaConfig struct {
	Brokers      []string      `envconfig:"KAFKA_BROKERS"`
	Topic        string        `envconfig:"KAFKA_BOOKING_TOPIC" default:"booking-events"`
	WriteTimeout time.Duration `envconfig:"KAFKA_WRITE_TIMEOUT" default:"10s"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,Idempotent-Replayed,Retry-After"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Asia/Ho_Chi_Minh"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"25200"` // 7*60*60
}

type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
}

type BookingConfig struct {
	TimeZone       string        `envconfig:"BOOKING_TIMEZONE" default:"Asia/Ho_Chi_Minh"`
	RateLimitRPS   float64       `envconfig:"BOOKING_RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int           `envconfig:"BOOKING_RATE_LIMIT_BURST" default:"10"`
	RetryAfter     time.Duration `envconfig:"BOOKING_RETRY_AFTER" default:"2s"`
}

type WorkerConfig struct {
	LifecycleInterval time.Duration `envconfig:"WORKER_LIFECYCLE_INTERVAL" default:"1m"`
	OutboxInterval    time.Duration `envconfig:"WORKER_OUTBOX_INTERVAL" default:"2s"`
	OutboxBatchSize   int           `envconfig:"WORKER_OUTBOX_BATCH_SIZE" default:"100"`
	ReclaimInterval   time.Duration `envconfig:"WORKER_RECLAIM_INTERVAL" default:"1m"`
	ReclaimGrace      time.Duration `envconfig:"WORKER_RECLAIM_GRACE" default:"5m"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

// Location resolves the business time zone, falling back to a fixed UTC+7
// zone when tzdata is unavailable.
func (c *BookingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.FixedZone(c.TimeZone, 7*60*60)
	}
	return loc
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.DB.User == "" || c.DB.Password == "" || c.DB.DBName == "" {
			return fmt.Errorf("DB_USER, DB_PASSWORD and DB_NAME are required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Booking.RateLimitRPS <= 0 || c.Booking.RateLimitBurst <= 0 {
		return fmt.Errorf("booking rate limit must be positive")
	}
	return nil
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8889", // Test port
			ShutdownTimeout: time.Second,
		},
		Storage: StorageConfig{Driver: StorageMemory},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
			MaxConns: 10,
			MinConns: 1,
		},
		Redis: RedisConfig{PlanTTL: time.Minute},
		Kafka: KafkaConfig{Topic: "booking-events"},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "Asia/Ho_Chi_Minh",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 25200,
		},
		JWT: JWTConfig{Secret: "test-secret-key-for-e2e-tests"},
		Booking: BookingConfig{
			TimeZone:       "Asia/Ho_Chi_Minh",
			RateLimitRPS:   1000,
			RateLimitBurst: 1000,
			RetryAfter:     time.Second,
		},
		Worker: WorkerConfig{
			LifecycleInterval: time.Minute,
			OutboxInterval:    100 * time.Millisecond,
			OutboxBatchSize:   10,
			ReclaimInterval:   time.Minute,
			ReclaimGrace:      5 * time.Minute,
		},
	}
}
