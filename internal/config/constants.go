package config

import "time"

// Application constants
const (
	AppName = "regpulse"

	EnvPrefix         = "REGPULSE"
	ConfigFileEnv     = "REGPULSE_CONFIG"
	DefaultConfigFile = "regpulse.yaml"
	DefaultEnvFile    = ".env"

	DefaultPort            = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 20 * time.Second
	DefaultMaxBodyBytes    = 1 << 20

	DefaultRateLimitRPS   = 100
	DefaultRateLimitBurst = 50

	DefaultDatasetPath = "data/regulations.csv"
	DefaultSheetsRange = "A:J"
	DefaultLogFile     = "logs/regpulse.log"
)

// Dataset formats accepted in DatasetConfig.Format. An empty value means the
// format is detected from the file extension.
const (
	FormatCSV    = "csv"
	FormatXLSX   = "xlsx"
	FormatSheets = "sheets"
)
