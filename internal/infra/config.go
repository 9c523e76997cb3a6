package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config корневая структура конфигурации всех сервисов (gateway, poller, console).
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Poller   PollerConfig   `mapstructure:"poller"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ConsolePort  int           `mapstructure:"console_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GRPCConfig порт gRPC-поверхности резолвера. 0 отключает сервер.
type GRPCConfig struct {
	Port int `mapstructure:"port"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DatabaseConfig описывает подключение к PostgreSQL.
// Пустой URL: сервис работает без журнала и без рантайм-границ.
type DatabaseConfig struct {
	URL         string `mapstructure:"url"`
	MaxConns    int32  `mapstructure:"max_conns"`
	MinConns    int32  `mapstructure:"min_conns"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// RedisConfig описывает подключение к Redis (Pub/Sub и Cache).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig содержит путь к публичному RSA ключу. Токены выпускает внешний сервис.
type AuthConfig struct {
	PublicKeyPath string `mapstructure:"public_key_path"`
	Disabled      bool   `mapstructure:"disabled"` // только для локальной разработки
	PublicKey     []byte
}

// EngineConfig пороги движка и журнал резолюций.
type EngineConfig struct {
	Locale                string        `mapstructure:"locale"`
	PartialCoverageMinPct int           `mapstructure:"partial_coverage_min_pct"`
	CacheStaleAfter       time.Duration `mapstructure:"cache_stale_after"`
	MaxRecordsLimit       int           `mapstructure:"max_records_limit"`
	ClockTick             time.Duration `mapstructure:"clock_tick"`

	JournalBufferSize    int           `mapstructure:"journal_buffer_size"`
	JournalBatchSize     int           `mapstructure:"journal_batch_size"`
	JournalFlushInterval time.Duration `mapstructure:"journal_flush_interval"`
}

// BackendConfig бэкенд поиска и настройки обертки надежности вокруг него.
type BackendConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Fixtures string        `mapstructure:"fixtures"` // путь к JSON с конвертами; вместо HTTP
	Timeout  time.Duration `mapstructure:"timeout"`

	// Circuit Breaker
	CBMaxRequests uint32        `mapstructure:"cb_max_requests"`
	CBInterval    time.Duration `mapstructure:"cb_interval"`
	CBTimeout     time.Duration `mapstructure:"cb_timeout"`
	CBFailures    uint32        `mapstructure:"cb_failures"`

	RateLimit   float64 `mapstructure:"rate_limit"` // запросов в секунду
	RateBurst   int     `mapstructure:"rate_burst"`
	MaxAttempts uint    `mapstructure:"max_attempts"`
}

// PollerConfig планировщик проверки обновлений отслеживаемых поисков.
type PollerConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	Concurrency int           `mapstructure:"concurrency"`
	TrackWindow time.Duration `mapstructure:"track_window"`
	MetricsPort int           `mapstructure:"metrics_port"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 2. ENV: BACKEND_BASE_URL перекроет backend.base_url
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Дефолты
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		// Файла нет: работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	// 6. Ключ: сначала PEM прямо в ENV (Docker/K8s), потом файл
	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.console_port", 8081)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("grpc.port", 9090)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("engine.locale", "pt-BR")
	v.SetDefault("engine.partial_coverage_min_pct", 70)
	v.SetDefault("engine.cache_stale_after", 6*time.Hour)
	v.SetDefault("engine.max_records_limit", 250000)
	v.SetDefault("engine.clock_tick", time.Minute)
	v.SetDefault("engine.journal_buffer_size", 10000)
	v.SetDefault("engine.journal_batch_size", 100)
	v.SetDefault("engine.journal_flush_interval", 500*time.Millisecond)

	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("backend.cb_max_requests", 3)
	v.SetDefault("backend.cb_interval", 60*time.Second)
	v.SetDefault("backend.cb_timeout", 30*time.Second)
	v.SetDefault("backend.cb_failures", 5)
	v.SetDefault("backend.rate_limit", 20.0)
	v.SetDefault("backend.rate_burst", 40)
	v.SetDefault("backend.max_attempts", 3)

	v.SetDefault("poller.interval", 5*time.Minute)
	v.SetDefault("poller.concurrency", 4)
	v.SetDefault("poller.track_window", 24*time.Hour)
	v.SetDefault("poller.metrics_port", 9102)
}

// loadKeyResource PEM из ENV или файл по пути из конфига
func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
