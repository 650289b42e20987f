package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every Green Loop environment variable.
const EnvPrefix = "GREENLOOP"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "GREENLOOP_APP_ENV"
	EnvDBDSN  = "GREENLOOP_DB_DSN"
	EnvDBHost = "GREENLOOP_DB_HOST"
	EnvDBUser = "GREENLOOP_DB_USER"
	EnvDBName = "GREENLOOP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	AIGateway     AIGatewayConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"GREENLOOP_APP_ENV" required:"true"`
	Port         string `envconfig:"GREENLOOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GREENLOOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GREENLOOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GREENLOOP_DB_DSN"`
	Driver string `envconfig:"GREENLOOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GREENLOOP_DB_HOST"`
	LegacyPort     int    `envconfig:"GREENLOOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GREENLOOP_DB_USER"`
	LegacyPassword string `envconfig:"GREENLOOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"GREENLOOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"GREENLOOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GREENLOOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GREENLOOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GREENLOOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GREENLOOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GREENLOOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GREENLOOP_REDIS_ADDR"`
	Password     string        `envconfig:"GREENLOOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"GREENLOOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GREENLOOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GREENLOOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GREENLOOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GREENLOOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GREENLOOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"GREENLOOP_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"GREENLOOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"GREENLOOP_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"GREENLOOP_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GREENLOOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GREENLOOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GREENLOOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GREENLOOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GREENLOOP_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GREENLOOP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"GREENLOOP_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GREENLOOP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"GREENLOOP_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"GREENLOOP_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"GREENLOOP_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GREENLOOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GREENLOOP_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"GREENLOOP_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// AIGatewayConfig points at the OpenAI-compatible gateway used for waste
// image classification.
type AIGatewayConfig struct {
	URL     string        `envconfig:"GREENLOOP_AI_GATEWAY_URL" default:"https://ai.gateway.lovable.dev/v1/chat/completions"`
	APIKey  string        `envconfig:"GREENLOOP_AI_GATEWAY_API_KEY"`
	Model   string        `envconfig:"GREENLOOP_AI_GATEWAY_MODEL" default:"google/gemini-2.5-flash"`
	Timeout time.Duration `envconfig:"GREENLOOP_AI_GATEWAY_TIMEOUT" default:"30s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GREENLOOP_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"GREENLOOP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GREENLOOP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PickupEventsTopic        string `envconfig:"GREENLOOP_PUBSUB_PICKUP_EVENTS_TOPIC" default:"gl-pickup-events"`
	PickupEventsSubscription string `envconfig:"GREENLOOP_PUBSUB_PICKUP_EVENTS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GREENLOOP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GREENLOOP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GREENLOOP_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
