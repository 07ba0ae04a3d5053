package config

// EnvPrefix is applied by envconfig in addition to the per-field tags.
const EnvPrefix = "SHOPFORGE"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv    = "SHOPFORGE_APP_ENV"
	EnvPort      = "SHOPFORGE_APP_PORT"
	EnvDBDSN     = "SHOPFORGE_DB_DSN"
	EnvDBHost    = "SHOPFORGE_DB_HOST"
	EnvDBUser    = "SHOPFORGE_DB_USER"
	EnvDBName    = "SHOPFORGE_DB_NAME"
	EnvRedisURL  = "SHOPFORGE_REDIS_URL"
	EnvJWTSecret = "SHOPFORGE_JWT_SECRET"
	EnvJWTIssuer = "SHOPFORGE_JWT_ISSUER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
