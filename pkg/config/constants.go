package config

// EnvPrefix is passed to envconfig; every field carries an explicit key.
const EnvPrefix = "QRGEN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DefaultTrialDays = 14
)

const (
	EnvAppEnv            = "QRGEN_APP_ENV"
	EnvPort              = "QRGEN_APP_PORT"
	EnvPublicBaseURL     = "QRGEN_PUBLIC_BASE_URL"
	EnvDBDSN             = "QRGEN_DB_DSN"
	EnvDBHost            = "QRGEN_DB_HOST"
	EnvDBUser            = "QRGEN_DB_USER"
	EnvDBName            = "QRGEN_DB_NAME"
	EnvRedisURL          = "QRGEN_REDIS_URL"
	EnvJWTSecret         = "QRGEN_JWT_SECRET"
	EnvJWTIssuer         = "QRGEN_JWT_ISSUER"
	EnvJWTExpMins        = "QRGEN_JWT_EXPIRATION_MINUTES"
	EnvRefreshTTLMinutes = "QRGEN_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID      = "QRGEN_GCP_PROJECT_ID"
	EnvPubSubEventsTopic = "QRGEN_PUBSUB_EVENTS_TOPIC"
	EnvRenderDefaultSize = "QRGEN_RENDER_DEFAULT_SIZE_PX"
	EnvRenderMaxSize     = "QRGEN_RENDER_MAX_SIZE_PX"
	EnvTrialDays         = "QRGEN_TRIAL_DAYS"
	EnvCronInterval      = "QRGEN_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
