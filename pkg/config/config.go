package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sakashimaa/storefront/pkg/utils"
)

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	Log      Log      `yaml:"log"`
	HTTP     HTTP     `yaml:"http"`
	Store    Store    `yaml:"store"`
	Postgres PG       `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Cache    Cache    `yaml:"cache"`
	Kafka    Kafka    `yaml:"kafka"`
	Outbox   Outbox   `yaml:"outbox"`
	Cart     Cart     `yaml:"cart"`
	Checkout Checkout `yaml:"checkout"`
	Breaker  Breaker  `yaml:"breaker"`
	Limiter  Limiter  `yaml:"limiter"`
	Tracing  Tracing  `yaml:"tracing"`
	Metrics  Metrics  `yaml:"metrics"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":3000"`
	Timeout time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"4s"`
}

// Store selects the document store backend: memory, postgres or redis.
type Store struct {
	Driver  string        `yaml:"driver" env:"STORE_DRIVER" env-default:"memory"`
	Timeout time.Duration `yaml:"timeout" env:"STORE_TIMEOUT" env-default:"2s"`
}

type PG struct {
	URL         string        `yaml:"url" env:"DB_URL"`
	AutoMigrate bool          `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
	MaxConns    int32         `yaml:"max_conns" env-default:"10"`
	MinConns    int32         `yaml:"min_conns" env-default:"2"`
	MaxConnLife time.Duration `yaml:"max_conn_lifetime" env-default:"1h"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Cache struct {
	Enabled bool          `yaml:"enabled" env:"CACHE_ENABLED" env-default:"false"`
	TTL     time.Duration `yaml:"ttl" env:"CACHE_TTL" env-default:"10m"`
}

type Kafka struct {
	Enabled bool     `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	GroupID string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"storefront-group"`
}

type Outbox struct {
	Interval    time.Duration `yaml:"interval" env-default:"500ms"`
	BatchSize   int           `yaml:"batch_size" env-default:"50"`
	MaxAttempts int           `yaml:"max_attempts" env-default:"10"`
}

type Cart struct {
	AddPolicy string `yaml:"add_policy" env:"CART_ADD_POLICY" env-default:"merge"`
}

type Checkout struct {
	MaxConcurrentLookups int `yaml:"max_concurrent_lookups" env-default:"8"`
}

type Breaker struct {
	MaxRequests  uint32        `yaml:"max_requests" env-default:"3"`
	Interval     time.Duration `yaml:"interval" env-default:"5s"`
	Timeout      time.Duration `yaml:"timeout" env-default:"10s"`
	MinRequests  uint32        `yaml:"min_requests" env-default:"5"`
	FailureRatio float64       `yaml:"failure_ratio" env-default:"0.6"`
}

type Limiter struct {
	Max        int           `yaml:"max" env-default:"20"`
	Expiration time.Duration `yaml:"expiration" env-default:"5s"`
}

type Tracing struct {
	Enabled  bool   `yaml:"enabled" env:"TRACING_ENABLED" env-default:"false"`
	Endpoint string `yaml:"endpoint" env:"JAEGER_ENDPOINT" env-default:"localhost:4318"`
}

type Metrics struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"false"`
	Port    string `yaml:"port" env:"METRICS_PORT" env-default:":9091"`
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	configPath := utils.ParseWithFallback("CONFIG_PATH", "./config/local.yaml")

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	return cfg
}
