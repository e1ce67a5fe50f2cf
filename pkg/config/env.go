package config

// EnvPrefix is the envconfig prefix shared by every setting.
const EnvPrefix = "PHONESHOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "PHONESHOP_APP_ENV"
	EnvPort                   = "PHONESHOP_APP_PORT"
	EnvDBDSN                  = "PHONESHOP_DB_DSN"
	EnvDBHost                 = "PHONESHOP_DB_HOST"
	EnvDBUser                 = "PHONESHOP_DB_USER"
	EnvDBName                 = "PHONESHOP_DB_NAME"
	EnvRedisURL               = "PHONESHOP_REDIS_URL"
	EnvJWTSecret              = "PHONESHOP_JWT_SECRET"
	EnvJWTIssuer              = "PHONESHOP_JWT_ISSUER"
	EnvJWTExpMins             = "PHONESHOP_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "PHONESHOP_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "PHONESHOP_GCP_PROJECT_ID"
	EnvGCSBucket              = "PHONESHOP_GCS_BUCKET_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
