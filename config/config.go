package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/ozon"
	"github.com/athebyme/gomarket-platform/harvester/internal/utils"
)

// Config содержит все настройки сборщика
type Config struct {
	AppName  string
	Version  string
	LogLevel string
	ENV      string

	Ozon struct {
		BaseURL           string
		ClientID          string
		APIKey            string
		Timeout           time.Duration
		MaxAttempts       int
		InitialBackoff    time.Duration
		MaxBackoff        time.Duration
		RequestsPerSecond float64 // общий лимит запросов, 0 - без ограничения
		Burst             int
	}

	Export struct {
		Dir     string
		DumpRaw bool // дополнительно сохранять ответ /v1/cluster/list
	}

	Harvest struct {
		AttributesBatch int
		StocksBatch     int
		Concurrency     int // число одновременных запросов пачек
		MaxPages        int
		LockKey         string
		LockTTL         time.Duration
		ReportTTL       time.Duration // время хранения отчетов в ops API
	}

	Server struct {
		Host            string
		Port            int
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		RequestTimeout  time.Duration
		RateLimit       float64 // запросов в секунду, 0 - без ограничения
		RateBurst       int
	}

	Postgres struct {
		Enabled  bool
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
		SSLMode  string
		Timeout  time.Duration
		PoolSize int // размер пула соединений
	}

	Redis struct {
		Enabled    bool
		Host       string
		Port       int
		Password   string
		DB         int
		LockPrefix string
	}

	Kafka struct {
		Enabled     bool
		Brokers     []string
		ClientID    string
		EventsTopic string
	}

	Metrics struct {
		Enabled bool
		Port    int
	}

	Security struct {
		Enabled       bool
		JWTSecret     string
		JWTExpiration time.Duration
		Issuer        string
	}
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Настройка Viper
	if configPath != "" && strings.ContainsAny(configPath, "./") {
		v.SetConfigFile(configPath)
	} else {
		configFile := "config"
		if configPath != "" {
			configFile = configPath
		}
		v.SetConfigName(configFile)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("../config")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Чтение конфигурационного файла
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
		// Продолжаем, если файл не найден, будем использовать только переменные окружения
	}

	setDefaults(v)
	if err := bindEnvVariables(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка десериализации конфигурации: %w", err)
	}

	if cfg.ENV == "" {
		cfg.ENV = "development"
		if envVar := os.Getenv("APP_ENV"); envVar != "" {
			cfg.ENV = envVar
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction включает JSON логи
func (c *Config) IsProduction() bool {
	return c.ENV == "production"
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Ozon.ClientID) == "" {
		errs = append(errs, errors.New("ozon.clientID (OZON_CLIENT_ID) is required"))
	}
	if strings.TrimSpace(c.Ozon.APIKey) == "" {
		errs = append(errs, errors.New("ozon.apiKey (OZON_API_KEY) is required"))
	}
	if c.Harvest.AttributesBatch <= 0 || c.Harvest.AttributesBatch > ozon.AttributesBatch {
		errs = append(errs, fmt.Errorf("harvest.attributesBatch must be in 1..%d", ozon.AttributesBatch))
	}
	if c.Harvest.StocksBatch <= 0 || c.Harvest.StocksBatch > ozon.StocksBatchMax {
		errs = append(errs, fmt.Errorf("harvest.stocksBatch must be in 1..%d", ozon.StocksBatchMax))
	}
	if c.Harvest.Concurrency <= 0 {
		errs = append(errs, errors.New("harvest.concurrency must be positive"))
	}
	if c.Ozon.MaxAttempts <= 0 {
		errs = append(errs, errors.New("ozon.maxAttempts must be positive"))
	}
	if c.Ozon.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("ozon.requestsPerSecond must not be negative"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	if c.Security.Enabled && c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("security.jwtSecret (JWT_SECRET) is required when security is enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("некорректная конфигурация: %w", errors.Join(errs...))
	}
	return nil
}

// OzonClientConfig параметры клиента Seller API
func (c *Config) OzonClientConfig() ozon.Config {
	return ozon.Config{
		BaseURL:           c.Ozon.BaseURL,
		ClientID:          c.Ozon.ClientID,
		APIKey:            c.Ozon.APIKey,
		Timeout:           c.Ozon.Timeout,
		MaxAttempts:       c.Ozon.MaxAttempts,
		InitialBackoff:    c.Ozon.InitialBackoff,
		MaxBackoff:        c.Ozon.MaxBackoff,
		RequestsPerSecond: c.Ozon.RequestsPerSecond,
		Burst:             c.Ozon.Burst,
	}
}

// PostgresConnectionOptions параметры подключения к хранилищу снимков
func (c *Config) PostgresConnectionOptions() utils.ConnectionOptions {
	return utils.ConnectionOptions{
		Host:     c.Postgres.Host,
		Port:     c.Postgres.Port,
		User:     c.Postgres.User,
		Password: c.Postgres.Password,
		DBName:   c.Postgres.DBName,
		SSLMode:  c.Postgres.SSLMode,
		PoolSize: c.Postgres.PoolSize,
		Timeout:  c.Postgres.Timeout,
	}
}

// setDefaults устанавливает значения по умолчанию
func setDefaults(v *viper.Viper) {
	// Основные настройки
	v.SetDefault("appName", "ozon-harvester")
	v.SetDefault("version", "1.0.0")
	v.SetDefault("logLevel", "info")
	v.SetDefault("env", "development")

	// Ozon Seller API
	v.SetDefault("ozon.baseURL", ozon.DefaultBaseURL)
	v.SetDefault("ozon.timeout", "30s")
	v.SetDefault("ozon.maxAttempts", 5)
	v.SetDefault("ozon.initialBackoff", "1s")
	v.SetDefault("ozon.maxBackoff", "30s")
	v.SetDefault("ozon.requestsPerSecond", 0)
	v.SetDefault("ozon.burst", 1)

	// Выгрузка
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.dumpRaw", false)

	// Параметры сбора
	v.SetDefault("harvest.attributesBatch", ozon.AttributesBatch)
	v.SetDefault("harvest.stocksBatch", ozon.StocksBatch)
	v.SetDefault("harvest.concurrency", 1)
	v.SetDefault("harvest.maxPages", 10000)
	v.SetDefault("harvest.lockKey", "ozon-harvester:run")
	v.SetDefault("harvest.lockTTL", "2h")
	v.SetDefault("harvest.reportTTL", "24h")

	// Настройки сервера
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "10s")
	v.SetDefault("server.shutdownTimeout", "30s")
	v.SetDefault("server.requestTimeout", "30s")
	v.SetDefault("server.rateLimit", 0)
	v.SetDefault("server.rateBurst", 10)

	// Настройки Postgres
	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.dbname", "postgres")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timeout", "5s")
	v.SetDefault("postgres.poolSize", 4)

	// Настройки Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lockPrefix", "lock")

	// Настройки Kafka
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.clientID", "ozon-harvester")
	v.SetDefault("kafka.eventsTopic", "harvest-events")

	// Настройки метрик
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)

	// Настройки безопасности
	v.SetDefault("security.enabled", false)
	v.SetDefault("security.jwtSecret", "")
	v.SetDefault("security.jwtExpiration", "60m")
	v.SetDefault("security.issuer", "ozon-harvester")
}

// bindEnvVariables привязывает переменные окружения к конфигурации
func bindEnvVariables(v *viper.Viper) error {
	bindings := [][2]string{
		// Основные настройки
		{"appName", "APP_NAME"},
		{"version", "APP_VERSION"},
		{"logLevel", "LOG_LEVEL"},
		{"env", "APP_ENV"},

		// Ozon Seller API
		{"ozon.baseURL", "OZON_BASE_URL"},
		{"ozon.clientID", "OZON_CLIENT_ID"},
		{"ozon.apiKey", "OZON_API_KEY"},
		{"ozon.timeout", "OZON_TIMEOUT"},
		{"ozon.maxAttempts", "OZON_MAX_ATTEMPTS"},
		{"ozon.initialBackoff", "OZON_INITIAL_BACKOFF"},
		{"ozon.maxBackoff", "OZON_MAX_BACKOFF"},
		{"ozon.requestsPerSecond", "OZON_REQUESTS_PER_SECOND"},
		{"ozon.burst", "OZON_BURST"},

		// Выгрузка
		{"export.dir", "EXPORT_DIR"},
		{"export.dumpRaw", "EXPORT_DUMP_RAW"},

		// Параметры сбора
		{"harvest.attributesBatch", "HARVEST_ATTRIBUTES_BATCH"},
		{"harvest.stocksBatch", "HARVEST_STOCKS_BATCH"},
		{"harvest.concurrency", "HARVEST_CONCURRENCY"},
		{"harvest.maxPages", "HARVEST_MAX_PAGES"},
		{"harvest.lockKey", "HARVEST_LOCK_KEY"},
		{"harvest.lockTTL", "HARVEST_LOCK_TTL"},
		{"harvest.reportTTL", "HARVEST_REPORT_TTL"},

		// Настройки сервера
		{"server.host", "SERVER_HOST"},
		{"server.port", "SERVER_PORT"},
		{"server.readTimeout", "SERVER_READ_TIMEOUT"},
		{"server.writeTimeout", "SERVER_WRITE_TIMEOUT"},
		{"server.shutdownTimeout", "SERVER_SHUTDOWN_TIMEOUT"},
		{"server.requestTimeout", "SERVER_REQUEST_TIMEOUT"},
		{"server.rateLimit", "SERVER_RATE_LIMIT"},
		{"server.rateBurst", "SERVER_RATE_BURST"},

		// Настройки Postgres
		{"postgres.enabled", "POSTGRES_ENABLED"},
		{"postgres.host", "POSTGRES_HOST"},
		{"postgres.port", "POSTGRES_PORT"},
		{"postgres.user", "POSTGRES_USER"},
		{"postgres.password", "POSTGRES_PASSWORD"},
		{"postgres.dbname", "POSTGRES_DBNAME"},
		{"postgres.sslmode", "POSTGRES_SSLMODE"},
		{"postgres.timeout", "POSTGRES_TIMEOUT"},
		{"postgres.poolSize", "POSTGRES_POOL_SIZE"},

		// Настройки Redis
		{"redis.enabled", "REDIS_ENABLED"},
		{"redis.host", "REDIS_HOST"},
		{"redis.port", "REDIS_PORT"},
		{"redis.password", "REDIS_PASSWORD"},
		{"redis.db", "REDIS_DB"},
		{"redis.lockPrefix", "REDIS_LOCK_PREFIX"},

		// Настройки Kafka
		{"kafka.enabled", "KAFKA_ENABLED"},
		{"kafka.brokers", "KAFKA_BROKERS"},
		{"kafka.clientID", "KAFKA_CLIENT_ID"},
		{"kafka.eventsTopic", "KAFKA_EVENTS_TOPIC"},

		// Настройки метрик
		{"metrics.enabled", "METRICS_ENABLED"},
		{"metrics.port", "METRICS_PORT"},

		// Настройки безопасности
		{"security.enabled", "SECURITY_ENABLED"},
		{"security.jwtSecret", "JWT_SECRET"},
		{"security.jwtExpiration", "JWT_EXPIRATION"},
		{"security.issuer", "JWT_ISSUER"},
	}

	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("ошибка привязки %s: %w", b[1], err)
		}
	}
	return nil
}
