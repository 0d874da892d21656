package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Render        RenderConfig
	Subscription  SubscriptionConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Render.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string `envconfig:"QRGEN_APP_ENV" required:"true"`
	Port          string `envconfig:"QRGEN_APP_PORT" required:"true"`
	LogLevel      string `envconfig:"QRGEN_LOG_LEVEL" default:"info"`
	LogWarnStack  bool   `envconfig:"QRGEN_LOG_WARN_STACK" default:"false"`
	LogFormat     string `envconfig:"QRGEN_LOG_FORMAT" default:"json"`
	PublicBaseURL string `envconfig:"QRGEN_PUBLIC_BASE_URL" default:"http://localhost:8080"`
	CORSOrigins   string `envconfig:"QRGEN_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// AllowedOrigins splits the comma separated CORS origins list.
func (a AppConfig) AllowedOrigins() []string {
	origins := []string{}
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

type ServiceConfig struct {
	Kind string `envconfig:"QRGEN_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"QRGEN_DB_DSN"`
	Driver string `envconfig:"QRGEN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"QRGEN_DB_HOST"`
	LegacyPort     int    `envconfig:"QRGEN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"QRGEN_DB_USER"`
	LegacyPassword string `envconfig:"QRGEN_DB_PASSWORD"`
	LegacyName     string `envconfig:"QRGEN_DB_NAME"`
	LegacySSLMode  string `envconfig:"QRGEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QRGEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QRGEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QRGEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QRGEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"QRGEN_DB_SLOW_QUERY_THRESHOLD" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"QRGEN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"QRGEN_REDIS_ADDR"`
	Password     string        `envconfig:"QRGEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"QRGEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QRGEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QRGEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QRGEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QRGEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QRGEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"QRGEN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"QRGEN_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"QRGEN_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"QRGEN_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"QRGEN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"QRGEN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"QRGEN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"QRGEN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"QRGEN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"QRGEN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"QRGEN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"QRGEN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"QRGEN_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"QRGEN_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"QRGEN_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"QRGEN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"QRGEN_AUTO_MIGRATE" default:"false"`
	ScanEvents  bool `envconfig:"QRGEN_FEATURE_SCAN_EVENTS" default:"true"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"QRGEN_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"QRGEN_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"QRGEN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"QRGEN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EventsTopic        string `envconfig:"QRGEN_PUBSUB_EVENTS_TOPIC" default:"qr-events"`
	EventsSubscription string `envconfig:"QRGEN_PUBSUB_EVENTS_SUBSCRIPTION" default:"qr-events-analytics"`
}

type BigQueryConfig struct {
	Dataset         string `envconfig:"QRGEN_BIGQUERY_DATASET" default:"qrgen"`
	ScansTable      string `envconfig:"QRGEN_BIGQUERY_SCANS_TABLE" default:"qr_scan_events"`
	CodeEventsTable string `envconfig:"QRGEN_BIGQUERY_CODE_EVENTS_TABLE" default:"qr_code_events"`

	InsertAttempts   int           `envconfig:"QRGEN_BIGQUERY_INSERT_ATTEMPTS" default:"3"`
	InsertBackoff    time.Duration `envconfig:"QRGEN_BIGQUERY_INSERT_BACKOFF" default:"250ms"`
	InsertMaxBackoff time.Duration `envconfig:"QRGEN_BIGQUERY_INSERT_MAX_BACKOFF" default:"2s"`
}

type RenderConfig struct {
	DefaultSizePx int `envconfig:"QRGEN_RENDER_DEFAULT_SIZE_PX" default:"512"`
	MaxSizePx     int `envconfig:"QRGEN_RENDER_MAX_SIZE_PX" default:"2048"`
	MaxLogoKB     int `envconfig:"QRGEN_RENDER_MAX_LOGO_KB" default:"2048"`
}

// MaxLogoBytes returns the accepted logo payload size in bytes.
func (r RenderConfig) MaxLogoBytes() int {
	return r.MaxLogoKB * 1024
}

func (r RenderConfig) validate() error {
	if r.DefaultSizePx <= 0 || r.MaxSizePx <= 0 {
		return fmt.Errorf("%s and %s must be positive", EnvRenderDefaultSize, EnvRenderMaxSize)
	}
	if r.DefaultSizePx > r.MaxSizePx {
		return fmt.Errorf("%s must not exceed %s", EnvRenderDefaultSize, EnvRenderMaxSize)
	}
	return nil
}

type SubscriptionConfig struct {
	TrialDays int `envconfig:"QRGEN_TRIAL_DAYS" default:"14"`
}

// TrialDuration returns the trial length, falling back to the default when unset.
func (s SubscriptionConfig) TrialDuration() time.Duration {
	days := s.TrialDays
	if days <= 0 {
		days = DefaultTrialDays
	}
	return time.Duration(days) * 24 * time.Hour
}

type CronConfig struct {
	Interval time.Duration `envconfig:"QRGEN_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"QRGEN_CRON_LOCK_TTL" default:"5m"`
	LockKey  string        `envconfig:"QRGEN_CRON_LOCK_KEY" default:"cron:scheduler"`

	// UsageRetentionDays bounds how long daily usage counters are kept.
	UsageRetentionDays int `envconfig:"QRGEN_CRON_USAGE_RETENTION_DAYS" default:"400"`
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
