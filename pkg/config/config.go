package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Commission   CommissionConfig
	Gateway      GatewayConfig
	Delivery     DeliveryConfig
	Notifier     NotifierConfig
	PubSub       PubSubConfig
	Kafka        KafkaConfig
	Verification VerificationConfig
	Idempotency  IdempotencyConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Commission.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Notifier.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Verification.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TRADELINK_APP_ENV" required:"true"`
	Port         string `envconfig:"TRADELINK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRADELINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRADELINK_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"TRADELINK_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	return splitList(a.CORSOrigins)
}

type DBConfig struct {
	DSN string `envconfig:"TRADELINK_DB_DSN"`

	LegacyHost     string `envconfig:"TRADELINK_DB_HOST"`
	LegacyPort     int    `envconfig:"TRADELINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRADELINK_DB_USER"`
	LegacyPassword string `envconfig:"TRADELINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRADELINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRADELINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRADELINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRADELINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRADELINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRADELINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRADELINK_REDIS_URL" required:"true"`
	Password     string        `envconfig:"TRADELINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRADELINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRADELINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRADELINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRADELINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRADELINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRADELINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies access tokens minted by the identity service.
// ExpirationMinutes only applies to tokens minted locally by tooling and tests.
type JWTConfig struct {
	Secret            string `envconfig:"TRADELINK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TRADELINK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TRADELINK_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TRADELINK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TRADELINK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TRADELINK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TRADELINK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TRADELINK_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TRADELINK_AUTO_MIGRATE" default:"false"`
}

// CommissionConfig holds the platform cut applied to seller subtotals when a
// seller carries no override of their own.
type CommissionConfig struct {
	DefaultPercent string `envconfig:"TRADELINK_COMMISSION_DEFAULT_PERCENT" default:"5.00"`
}

// Default returns the parsed default commission percent.
func (c CommissionConfig) Default() decimal.Decimal {
	pct, err := decimal.NewFromString(strings.TrimSpace(c.DefaultPercent))
	if err != nil {
		return decimal.NewFromInt(5)
	}
	return pct
}

func (c CommissionConfig) validate() error {
	pct, err := decimal.NewFromString(strings.TrimSpace(c.DefaultPercent))
	if err != nil {
		return fmt.Errorf("%s must be a decimal: %w", EnvCommissionDefault, err)
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%s must be between 0 and 100", EnvCommissionDefault)
	}
	return nil
}

// GatewayConfig carries the payment gateway merchant credentials used to
// recompute callback hashes.
type GatewayConfig struct {
	MerchantKey  string `envconfig:"TRADELINK_GATEWAY_MERCHANT_KEY"`
	MerchantSalt string `envconfig:"TRADELINK_GATEWAY_MERCHANT_SALT"`
	EnforceHash  bool   `envconfig:"TRADELINK_GATEWAY_ENFORCE_HASH" default:"false"`
}

type DeliveryConfig struct {
	OTPTTL      time.Duration `envconfig:"TRADELINK_DELIVERY_OTP_TTL" default:"30m"`
	MaxAttempts int           `envconfig:"TRADELINK_DELIVERY_OTP_MAX_ATTEMPTS" default:"5"`
}

type NotifierConfig struct {
	// Drivers is a comma separated list of log, pubsub, kafka.
	Drivers string        `envconfig:"TRADELINK_NOTIFIER_DRIVERS" default:"log"`
	Timeout time.Duration `envconfig:"TRADELINK_NOTIFIER_TIMEOUT" default:"5s"`
}

// DriverList returns the normalized notifier driver names.
func (n NotifierConfig) DriverList() []string {
	out := []string{}
	for _, d := range splitList(n.Drivers) {
		out = append(out, strings.ToLower(d))
	}
	return out
}

func (n NotifierConfig) validate() error {
	for _, d := range n.DriverList() {
		switch d {
		case NotifierDriverLog, NotifierDriverPubSub, NotifierDriverKafka:
		default:
			return fmt.Errorf("%s: unknown driver %q", EnvNotifierDrivers, d)
		}
	}
	return nil
}

type PubSubConfig struct {
	ProjectID         string `envconfig:"TRADELINK_GCP_PROJECT_ID"`
	NotificationTopic string `envconfig:"TRADELINK_PUBSUB_NOTIFICATION_TOPIC" default:"tl-notification-events"`
}

type KafkaConfig struct {
	Brokers           string `envconfig:"TRADELINK_KAFKA_BROKERS" default:"localhost:9092"`
	NotificationTopic string `envconfig:"TRADELINK_KAFKA_NOTIFICATION_TOPIC" default:"tl.notifications"`
}

// BrokerList splits the comma separated broker list.
func (k KafkaConfig) BrokerList() []string {
	return splitList(k.Brokers)
}

type VerificationConfig struct {
	CodeTTL     time.Duration `envconfig:"TRADELINK_VERIFICATION_CODE_TTL" default:"10m"`
	MaxAttempts int           `envconfig:"TRADELINK_VERIFICATION_MAX_ATTEMPTS" default:"5"`
	// Store selects redis or memory.
	Store string `envconfig:"TRADELINK_VERIFICATION_STORE" default:"redis"`
}

func (v *VerificationConfig) validate() error {
	v.Store = strings.ToLower(strings.TrimSpace(v.Store))
	switch v.Store {
	case VerificationStoreRedis, VerificationStoreMemory:
		return nil
	}
	return fmt.Errorf("%s: unknown store %q", EnvVerificationStore, v.Store)
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"TRADELINK_IDEMPOTENCY_TTL" default:"24h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"TRADELINK_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"TRADELINK_CRON_LOCK_TTL" default:"4m"`
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
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
