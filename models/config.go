package models

// Config is accountd's service configuration, parsed from config.yaml and
// overridable through the environment.
type Config struct {
	Port    int  `json:"port" yaml:"port"`
	IsDebug bool `json:"is_debug" yaml:"is_debug"`

	DatabasePath string `json:"database_path" yaml:"database_path"`
	RedisPort    string `json:"redis_port" yaml:"redis_port"`

	// JWTKey signs access tokens. DataEncryptionKey derives the cipher
	// used for provider tokens at rest; leaving it empty disables
	// field-level encryption.
	JWTKey            string `json:"jwt_key" yaml:"jwt_key"`
	DataEncryptionKey string `json:"data_encryption_key" yaml:"data_encryption_key"`

	GoogleClientID     string `json:"google_client_id" yaml:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret" yaml:"google_client_secret"`
	GoogleRedirectURL  string `json:"google_redirect_url" yaml:"google_redirect_url"`

	SMSGateway string `json:"sms_gateway" yaml:"sms_gateway"`
	SMSAPIKey  string `json:"sms_api_key" yaml:"sms_api_key"`
	SMSSender  string `json:"sms_sender" yaml:"sms_sender"`

	DefaultTimezone string `json:"default_timezone" yaml:"default_timezone"`

	AccessTokenMinutes int `json:"access_token_minutes" yaml:"access_token_minutes"`
	RefreshTokenDays   int `json:"refresh_token_days" yaml:"refresh_token_days"`
}

// DefaultConfig returns the config used when no file is present, suitable
// for local development and tests.
func DefaultConfig() Config {
	return Config{
		Port:               8080,
		DatabasePath:       "accountd.db",
		RedisPort:          "localhost:6379",
		DefaultTimezone:    "UTC",
		AccessTokenMinutes: 15,
		RefreshTokenDays:   30,
	}
}
