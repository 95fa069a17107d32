package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Upload     UploadConfig     `yaml:"upload"`
	Lock       LockConfig       `yaml:"lock"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Sweeper    SweeperConfig    `yaml:"sweeper"`
	Booking    BookingConfig    `yaml:"booking"`
	Log        LogConfig        `yaml:"log"`
	Seed       SeedConfig       `yaml:"seed"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres, sqlite or mysql
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableOverlapGuard     bool   `yaml:"enable_overlap_guard"`
	LogSQL                 bool   `yaml:"log_sql"`
}

// AuthConfig holds the JWT verification settings.
type AuthConfig struct {
	JWTSecret  string   `yaml:"jwt_secret"`
	Issuer     string   `yaml:"issuer"`
	StaffRoles []string `yaml:"staff_roles"`
}

// UploadConfig controls where occupant photos are written.
type UploadConfig struct {
	Dir          string `yaml:"dir"`
	MaxFileBytes int64  `yaml:"max_file_bytes"`
}

// LockConfig selects the lock that serializes booking creation.
// An empty RedisAddr keeps the lock in-process.
type LockConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	Key           string        `yaml:"key"`
	TTLSeconds    int           `yaml:"ttl_seconds"`
	TTL           time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are present.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// SweeperConfig holds the configuration of the room status sweeper.
type SweeperConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// BookingConfig holds booking procedure settings.
type BookingConfig struct {
	Timezone           string         `yaml:"timezone"`
	Location           *time.Location `yaml:"-"`
	TxTimeoutSeconds   int            `yaml:"tx_timeout_seconds"`
	TxTimeout          time.Duration  `yaml:"-"`
	MaxMultipartMemory int64          `yaml:"max_multipart_memory"`
}

// LogConfig selects the zap encoder.
type LogConfig struct {
	Development bool   `yaml:"development"`
	Level       string `yaml:"level"`
}

// SeedConfig describes the rows created on an empty database.
type SeedConfig struct {
	Prefix        string     `yaml:"prefix"`
	StartCounter  int64      `yaml:"start_counter"`
	TaxName       string     `yaml:"tax_name"`
	TaxPercentage float64    `yaml:"tax_percentage"`
	Rooms         []SeedRoom `yaml:"rooms"`
}

// SeedRoom is one room in SeedConfig.
type SeedRoom struct {
	Number           string  `yaml:"number"`
	Occupancy        int     `yaml:"occupancy"`
	PriceAC          float64 `yaml:"price_ac"`
	PriceNonAC       float64 `yaml:"price_non_ac"`
	OnlinePriceAC    float64 `yaml:"online_price_ac"`
	OnlinePriceNonAC float64 `yaml:"online_price_non_ac"`
	ExtraBedPrice    float64 `yaml:"extra_bed_price"`
}

// Load reads the configuration from the given path. A .env file in the working
// directory is loaded first so that the environment overrides below can use it.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Lock.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Lock.RedisPassword = v
	}
	if v := os.Getenv("VAPID_PUBLIC_KEY"); v != "" {
		cfg.Push.PublicKey = v
	}
	if v := os.Getenv("VAPID_PRIVATE_KEY"); v != "" {
		cfg.Push.PrivateKey = v
	}
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Auth.JWTSecret == "" || strings.HasPrefix(cfg.Auth.JWTSecret, "${") {
		return errors.New("auth.jwt_secret (or JWT_SECRET) must be set")
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "hotel-desk"
	}
	if len(cfg.Auth.StaffRoles) == 0 {
		cfg.Auth.StaffRoles = []string{"admin", "frontdesk"}
	}

	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = "./uploads"
	}
	if cfg.Upload.MaxFileBytes <= 0 {
		cfg.Upload.MaxFileBytes = 5 << 20
	}

	if cfg.Lock.Key == "" {
		cfg.Lock.Key = "hotel-desk:booking"
	}
	if cfg.Lock.TTLSeconds <= 0 {
		cfg.Lock.TTLSeconds = 30
	}
	cfg.Lock.TTL = time.Duration(cfg.Lock.TTLSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Sweeper.IntervalSeconds <= 0 {
		cfg.Sweeper.IntervalSeconds = 300
	}
	cfg.Sweeper.Interval = time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second

	if cfg.Booking.Timezone == "" {
		cfg.Booking.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		return err
	}
	cfg.Booking.Location = loc
	if cfg.Booking.TxTimeoutSeconds <= 0 {
		cfg.Booking.TxTimeoutSeconds = 15
	}
	cfg.Booking.TxTimeout = time.Duration(cfg.Booking.TxTimeoutSeconds) * time.Second
	if cfg.Booking.MaxMultipartMemory <= 0 {
		cfg.Booking.MaxMultipartMemory = 32 << 20
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	// The lock must outlive the transaction it guards.
	if cfg.Lock.TTL <= cfg.Booking.TxTimeout {
		return fmt.Errorf("lock.ttl_seconds (%d) must be greater than booking.tx_timeout_seconds (%d)",
			cfg.Lock.TTLSeconds, cfg.Booking.TxTimeoutSeconds)
	}
	return nil
}
