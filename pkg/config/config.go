package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Inventory    InventoryConfig
	Saga         SagaConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FULFILLZ_APP_ENV" required:"true"`
	Port         string `envconfig:"FULFILLZ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FULFILLZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FULFILLZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FULFILLZ_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FULFILLZ_DB_DSN"`
	Driver string `envconfig:"FULFILLZ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FULFILLZ_DB_HOST"`
	LegacyPort     int    `envconfig:"FULFILLZ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FULFILLZ_DB_USER"`
	LegacyPassword string `envconfig:"FULFILLZ_DB_PASSWORD"`
	LegacyName     string `envconfig:"FULFILLZ_DB_NAME"`
	LegacySSLMode  string `envconfig:"FULFILLZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FULFILLZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FULFILLZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FULFILLZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FULFILLZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FULFILLZ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FULFILLZ_REDIS_ADDR"`
	Password     string        `envconfig:"FULFILLZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"FULFILLZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FULFILLZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FULFILLZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FULFILLZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FULFILLZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FULFILLZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FULFILLZ_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FULFILLZ_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FULFILLZ_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"FULFILLZ_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FULFILLZ_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"FULFILLZ_PUBSUB_DOMAIN_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"FULFILLZ_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FULFILLZ_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FULFILLZ_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FULFILLZ_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type InventoryConfig struct {
	DefaultLowStockThreshold int           `envconfig:"FULFILLZ_INVENTORY_LOW_STOCK_THRESHOLD" default:"5"`
	LowStockScanInterval     time.Duration `envconfig:"FULFILLZ_INVENTORY_LOW_STOCK_INTERVAL" default:"1h"`
}

type SagaConfig struct {
	ShippingFlatRateCents  int           `envconfig:"FULFILLZ_SAGA_SHIPPING_FLAT_RATE_CENTS" default:"899"`
	ShippingPerItemCents   int           `envconfig:"FULFILLZ_SAGA_SHIPPING_PER_ITEM_CENTS" default:"120"`
	TaxRateBasisPoints     int           `envconfig:"FULFILLZ_SAGA_TAX_RATE_BPS" default:"875"`
	PaymentProviderTimeout time.Duration `envconfig:"FULFILLZ_SAGA_PAYMENT_TIMEOUT" default:"15s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
