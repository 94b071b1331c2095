package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config - корневая структура конфигурации сервиса.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	GRPC       GRPCConfig       `mapstructure:"grpc"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Resilience ResilienceConfig `mapstructure:"resilience"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Events     EventsConfig     `mapstructure:"events"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GRPCConfig - gRPC health-сервер. Port 0 отключает его.
type GRPCConfig struct {
	Port          int           `mapstructure:"port"`
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
}

// StorageConfig выбирает бэкенд реестра.
type StorageConfig struct {
	Driver          string        `mapstructure:"driver"` // memory, postgres, sqlite, mongo
	DSN             string        `mapstructure:"dsn"`    // для postgres и sqlite
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"` // создавать схему при старте serve
}

// MongoConfig описывает подключение к MongoDB.
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Transactions   bool          `mapstructure:"transactions"` // требует replica set
}

// RedisConfig описывает подключение к Redis (Pub/Sub уведомлений). Пустой Addr - уведомления не отправляются.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LedgerConfig struct {
	MaxPolicyAmount float64 `mapstructure:"max_policy_amount"`
}

// ResilienceConfig - ретраи и Circuit Breaker вокруг хранилища.
type ResilienceConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Attempts      uint          `mapstructure:"attempts"`
	Delay         time.Duration `mapstructure:"delay"`
	CBMaxRequests uint32        `mapstructure:"cb_max_requests"`
	CBInterval    time.Duration `mapstructure:"cb_interval"`
	CBTimeout     time.Duration `mapstructure:"cb_timeout"`
	CBFailures    uint32        `mapstructure:"cb_failures"`
}

// RateLimitConfig - глобальный лимит запросов к API. RPS 0 отключает лимит.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type EventsConfig struct {
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
// path - явный путь к файлу (флаг --config); пустой - ищем config.yaml в . и ./configs.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")    // имя файла без расширения
		v.SetConfigType("yaml")      // формат
		v.AddConfigPath(".")         // ищем в корне
		v.AddConfigPath("./configs") // и в папке с конфигами
	}

	// 2. Настройка переменных окружения (ENV)
	// Позволяет перекрывать конфиг: SERVER_PORT=9000 перекроет server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет - работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("grpc.port", 0)
	v.SetDefault("grpc.probe_interval", 5*time.Second)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.max_open_conns", 15)
	v.SetDefault("storage.max_idle_conns", 5)
	v.SetDefault("storage.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("storage.auto_migrate", true)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "claims")
	v.SetDefault("mongo.max_pool_size", 50)
	v.SetDefault("mongo.connect_timeout", 10*time.Second)
	v.SetDefault("mongo.transactions", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("ledger.max_policy_amount", 50000)

	v.SetDefault("resilience.enabled", true)
	v.SetDefault("resilience.attempts", 3)
	v.SetDefault("resilience.delay", 50*time.Millisecond)
	v.SetDefault("resilience.cb_max_requests", 1)
	v.SetDefault("resilience.cb_interval", 60*time.Second)
	v.SetDefault("resilience.cb_timeout", 30*time.Second)
	v.SetDefault("resilience.cb_failures", 5)

	v.SetDefault("rate_limit.rps", 0)
	v.SetDefault("rate_limit.burst", 50)

	v.SetDefault("events.buffer_size", 1000)
	v.SetDefault("events.batch_size", 100)
	v.SetDefault("events.flush_interval", 500*time.Millisecond)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "mongo":
	case "postgres", "sqlite":
		if c.Storage.DSN == "" {
			return fmt.Errorf("config: storage.dsn is required for driver %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Ledger.MaxPolicyAmount <= 0 {
		return fmt.Errorf("config: ledger.max_policy_amount must be positive")
	}
	return nil
}
