package config

const (
	EnvPrefix = "HIVELY"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "HIVELY_DB_DSN"
	EnvDBHost = "HIVELY_DB_HOST"
	EnvDBUser = "HIVELY_DB_USER"
	EnvDBName = "HIVELY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
