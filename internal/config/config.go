package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"utility-rate-sync/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Supabase   SupabaseConfig   `mapstructure:"supabase"`
	RateAcuity RateAcuityConfig `mapstructure:"rateacuity"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Export     ExportConfig     `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates direct PostgreSQL connectivity. Optional; when
// DSN is empty the Supabase REST API is used instead.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SupabaseConfig covers the backend REST connection.
type SupabaseConfig struct {
	URL            string        `mapstructure:"url"`
	Key            string        `mapstructure:"key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// RateAcuityConfig covers the rate-data provider.
type RateAcuityConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// SyncConfig governs the shape of one sync pass.
type SyncConfig struct {
	States           []string `mapstructure:"states"`
	UtilityFilters   []string `mapstructure:"utility_filters"`
	IncludeSchedules bool     `mapstructure:"include_schedules"`
	IncludeDetails   bool     `mapstructure:"include_details"`
	FailFast         bool     `mapstructure:"fail_fast"`
	AdvisoryLockKey  int64    `mapstructure:"advisory_lock_key"`
}

// NotifyConfig defines run-summary delivery.
type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxSchedules int `mapstructure:"max_schedules"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RATESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindCredentialEnv(v)
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindCredentialEnv wires the credential variables under the names the CI
// secrets use, alongside the prefixed forms.
func bindCredentialEnv(v *viper.Viper) {
	_ = v.BindEnv("supabase.url", "RATESYNC_SUPABASE_URL", "SUPABASE_URL")
	_ = v.BindEnv("supabase.key", "RATESYNC_SUPABASE_KEY", "SUPABASE_KEY")
	_ = v.BindEnv("rateacuity.username", "RATESYNC_RATEACUITY_USERNAME", "RATEACUITY_USERNAME")
	_ = v.BindEnv("rateacuity.password", "RATESYNC_RATEACUITY_PASSWORD", "RATEACUITY_PASSWORD")
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ratesync")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("supabase.request_timeout", "30s")

	v.SetDefault("rateacuity.base_url", "https://secure.rateacuity.com/RateAcuityJSONAPI/api")
	v.SetDefault("rateacuity.request_timeout", "30s")
	v.SetDefault("rateacuity.user_agent", "ratesync/1.0")

	v.SetDefault("sync.states", []string{"MA"})
	v.SetDefault("sync.utility_filters", []string{"Eversource", "National Grid"})
	v.SetDefault("sync.include_schedules", true)
	v.SetDefault("sync.include_details", true)
	v.SetDefault("sync.fail_fast", false)
	v.SetDefault("sync.advisory_lock_key", int64(0x72617465))

	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_schedules", 50)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if c.Export.MaxSchedules <= 0 {
		return fmt.Errorf("export.max_schedules must be greater than zero")
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("notify.telegram.bot_token is required when telegram is enabled")
		}
		if c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

// ValidateSync checks that every credential the sync job needs is present.
// Called before any client is constructed, so a missing secret fails the run
// before the first network call. Values are never echoed back.
func (c *Config) ValidateSync() error {
	var missing []string

	if c.RateAcuity.Username == "" {
		missing = append(missing, "RATEACUITY_USERNAME")
	}
	if c.RateAcuity.Password == "" {
		missing = append(missing, "RATEACUITY_PASSWORD")
	}
	if c.Database.DSN == "" {
		if c.Supabase.URL == "" {
			missing = append(missing, "SUPABASE_URL")
		}
		if c.Supabase.Key == "" {
			missing = append(missing, "SUPABASE_KEY")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
