package config

import (
	"errors"
	"strings"
	"time"

	ierr "github.com/billhive/subsync/internal/errors"
	"github.com/billhive/subsync/internal/validator"
	"github.com/spf13/viper"
)

type Configuration struct {
	Airtable AirtableConfig `validate:"required"`
	Sellsy   SellsyConfig   `validate:"required"`
	Sync     SyncConfig     `validate:"required"`
	Logging  LoggingConfig  `validate:"required"`
}

// AirtableConfig holds access to the tabular data store where subscription
// records and discount grids live.
type AirtableConfig struct {
	APIKey     string `mapstructure:"api_key" validate:"required"`
	BaseID     string `mapstructure:"base_id" validate:"required"`
	BaseURL    string `mapstructure:"base_url"`
	TableName  string `mapstructure:"table_name"`
	GridsTable string `mapstructure:"grids_table"`
}

// SellsyConfig holds credentials and lookups for the billing platform.
type SellsyConfig struct {
	ClientID           string  `mapstructure:"client_id" validate:"required"`
	ClientSecret       string  `mapstructure:"client_secret" validate:"required"`
	TokenURL           string  `mapstructure:"token_url"`
	APIURL             string  `mapstructure:"api_url"`
	TaxRatePercent     float64 `mapstructure:"tax_rate_percent"`
	PaymentMethodLabel string  `mapstructure:"payment_method_label"`
}

type SyncConfig struct {
	DryRun    bool          `mapstructure:"dry_run"`
	Finalize  bool          `mapstructure:"finalize"`
	SendEmail bool          `mapstructure:"send_email"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/subsync")

	v.SetEnvPrefix("SUBSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file if exists; env-only deployments are fine
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, ierr.WithError(err).
				WithHint("Failed to read config file").
				Mark(ierr.ErrConfiguration)
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to parse configuration").
			Mark(ierr.ErrConfiguration)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Keys must be registered for AutomaticEnv values to survive Unmarshal
	v.SetDefault("airtable.api_key", "")
	v.SetDefault("airtable.base_id", "")
	v.SetDefault("sellsy.client_id", "")
	v.SetDefault("sellsy.client_secret", "")
	v.SetDefault("sellsy.payment_method_label", "")
	v.SetDefault("airtable.base_url", "https://api.airtable.com/v0")
	v.SetDefault("airtable.table_name", "service_sellsy")
	v.SetDefault("airtable.grids_table", "grilles_remise")
	v.SetDefault("sellsy.token_url", "https://login.sellsy.com/oauth2/access-tokens")
	v.SetDefault("sellsy.api_url", "https://api.sellsy.com/v2")
	v.SetDefault("sellsy.tax_rate_percent", 20.0)
	v.SetDefault("sync.dry_run", false)
	v.SetDefault("sync.finalize", true)
	v.SetDefault("sync.send_email", false)
	v.SetDefault("sync.timeout", 30*time.Second)
	v.SetDefault("logging.level", "info")
}

func (c Configuration) Validate() error {
	if err := validator.ValidateRequest(c); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid configuration").
			Mark(ierr.ErrConfiguration)
	}
	return nil
}

// GetDefaultConfig returns a default configuration for tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Airtable: AirtableConfig{
			APIKey:     "test",
			BaseID:     "appTEST",
			BaseURL:    "https://api.airtable.com/v0",
			TableName:  "service_sellsy",
			GridsTable: "grilles_remise",
		},
		Sellsy: SellsyConfig{
			ClientID:       "test",
			ClientSecret:   "test",
			TaxRatePercent: 20.0,
		},
		Sync: SyncConfig{
			Finalize: true,
			Timeout:  30 * time.Second,
		},
		Logging: LoggingConfig{Level: "debug"},
	}
}
