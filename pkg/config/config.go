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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	OAuth         OAuthConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	Payments      PaymentsConfig
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
	Env          string `envconfig:"PHONESHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"PHONESHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PHONESHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PHONESHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PHONESHOP_DB_DSN"`
	Driver string `envconfig:"PHONESHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PHONESHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"PHONESHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PHONESHOP_DB_USER"`
	LegacyPassword string `envconfig:"PHONESHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"PHONESHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"PHONESHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PHONESHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PHONESHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PHONESHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PHONESHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PHONESHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PHONESHOP_REDIS_ADDR"`
	Password     string        `envconfig:"PHONESHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHONESHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHONESHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHONESHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHONESHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHONESHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHONESHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PHONESHOP_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PHONESHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PHONESHOP_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PHONESHOP_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PHONESHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PHONESHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PHONESHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PHONESHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PHONESHOP_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PHONESHOP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PHONESHOP_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PHONESHOP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PHONESHOP_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PHONESHOP_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PHONESHOP_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PHONESHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PHONESHOP_AUTO_MIGRATE" default:"false"`
}

type OAuthConfig struct {
	ClientID     string `envconfig:"PHONESHOP_OAUTH_CLIENT_ID"`
	ClientSecret string `envconfig:"PHONESHOP_OAUTH_CLIENT_SECRET"`
	TokenURL     string `envconfig:"PHONESHOP_OAUTH_TOKEN_URL"`
	RedirectURL  string `envconfig:"PHONESHOP_OAUTH_REDIRECT_URL"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PHONESHOP_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PHONESHOP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PHONESHOP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName      string        `envconfig:"PHONESHOP_GCS_BUCKET_NAME" default:"phone-images"`
	UploadURLExpiry time.Duration `envconfig:"PHONESHOP_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"PHONESHOP_MAX_UPLOAD_MB" default:"10"`
}

type PaymentsConfig struct {
	ProcessingDelay time.Duration `envconfig:"PHONESHOP_PAYMENTS_PROCESSING_DELAY" default:"1500ms"`
	ApprovalPercent int           `envconfig:"PHONESHOP_PAYMENTS_APPROVAL_PERCENT" default:"90"`
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
