package config

const (
	EnvPrefix = "TRADELINK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	NotifierDriverLog    = "log"
	NotifierDriverPubSub = "pubsub"
	NotifierDriverKafka  = "kafka"

	VerificationStoreRedis  = "redis"
	VerificationStoreMemory = "memory"
)

const (
	EnvAppEnv            = "TRADELINK_APP_ENV"
	EnvPort              = "TRADELINK_APP_PORT"
	EnvDBDSN             = "TRADELINK_DB_DSN"
	EnvDBHost            = "TRADELINK_DB_HOST"
	EnvDBUser            = "TRADELINK_DB_USER"
	EnvDBName            = "TRADELINK_DB_NAME"
	EnvRedisURL          = "TRADELINK_REDIS_URL"
	EnvJWTSecret         = "TRADELINK_JWT_SECRET"
	EnvJWTIssuer         = "TRADELINK_JWT_ISSUER"
	EnvCommissionDefault = "TRADELINK_COMMISSION_DEFAULT_PERCENT"
	EnvGatewayEnforce    = "TRADELINK_GATEWAY_ENFORCE_HASH"
	EnvDeliveryOTPTTL    = "TRADELINK_DELIVERY_OTP_TTL"
	EnvDeliveryAttempts  = "TRADELINK_DELIVERY_OTP_MAX_ATTEMPTS"
	EnvNotifierDrivers   = "TRADELINK_NOTIFIER_DRIVERS"
	EnvKafkaBrokers      = "TRADELINK_KAFKA_BROKERS"
	EnvVerificationStore = "TRADELINK_VERIFICATION_STORE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
