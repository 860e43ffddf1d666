package constants

import "time"

type ConfigEnvKey string

const (
	EnvPrefix = ConfigEnvKey("GATEWAYSHIELD")
	// APIToken is the secret key holding the admin API bearer token.
	APIToken = ConfigEnvKey("API_TOKEN")
	// ArchiveDBUsername is the secret key for the export archive database username.
	ArchiveDBUsername = ConfigEnvKey("ARCHIVE_DB_USERNAME")
	// ArchiveDBPassword is the secret key for the export archive database password.
	ArchiveDBPassword = ConfigEnvKey("ARCHIVE_DB_PASSWORD")
	// EncryptionPassword is the environment variable unlocking an encrypted .env file.
	EncryptionPassword = ConfigEnvKey("SECRETS_ENCRYPTION_PASSWORD")
)

// String implements the flag.Value interface.
func (k ConfigEnvKey) String() string {
	return string(k)
}

const (
	DefaultTimeout        = 30 * time.Second
	APITimeout            = "15s"
	APIMaxIdleConns       = 10
	APIUserAgent          = "gatewayshield-admin"
	ListingDebounce       = "300ms"
	ListingPageSize       = 10
	ListingMaxPageSize    = 100
	ExportDir             = "exports"
	ExportFormat          = "csv"
	ArchiveMaxOpenConns   = 4
	ArchiveMaxIdleConns   = 1
	ArchiveConnLifetime   = "5m"
	ArchiveConnAttempts   = 3
	ArchiveConnTimeout    = "5s"
	SecretsProvider       = "dotenv"
	SecretsEnvPath        = ".env"
	LogLevel              = "info"
	LogMaxSizeMB          = 10
	LogFile               = "logs/gatewayshield.log"
	MetricsAddr           = ""
	SecretsMaxRetries     = 3
	SecretsRetryBaseDelay = time.Second
)
