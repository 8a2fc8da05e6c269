package config

// EnvPrefix scopes every environment variable consumed by the services.
const EnvPrefix = "FULFILLZ"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv           = "FULFILLZ_APP_ENV"
	EnvPort             = "FULFILLZ_APP_PORT"
	EnvDBDSN            = "FULFILLZ_DB_DSN"
	EnvDBHost           = "FULFILLZ_DB_HOST"
	EnvDBUser           = "FULFILLZ_DB_USER"
	EnvDBName           = "FULFILLZ_DB_NAME"
	EnvRedisURL         = "FULFILLZ_REDIS_URL"
	EnvGCPProjectID     = "FULFILLZ_GCP_PROJECT_ID"
	EnvPubSubDomain     = "FULFILLZ_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubOrdersSub  = "FULFILLZ_PUBSUB_ORDERS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
