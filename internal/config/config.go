package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/expense-admin/internal/domain/workflow"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	API      APIConfig      `mapstructure:"api"`
	Session  SessionConfig  `mapstructure:"session"`
	Registry RegistryConfig `mapstructure:"registry"`
	Export   ExportConfig   `mapstructure:"export"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
}

// APIConfig holds the remote office/expense API settings
type APIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Token           string        `mapstructure:"token"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RequestIDHeader string        `mapstructure:"request_id_header"`
}

// SessionConfig describes the signed-in user for the CLI. The server takes
// these from each session instead.
type SessionConfig struct {
	ProfileID     string   `mapstructure:"profile_id"`
	Position      string   `mapstructure:"position"`
	Roles         []string `mapstructure:"roles"`
	OfficeID      int64    `mapstructure:"office_id"`
	GovernorateID int64    `mapstructure:"governorate_id"`
}

// RegistryConfig points at an optional resource definition file replacing
// the built-in one
type RegistryConfig struct {
	File string `mapstructure:"file"`
}

// ExportConfig holds xlsx export configuration
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// EnvFiles are read, when present, before the environment is bound
var EnvFiles = []string{".env", ".env.local"}

// Load loads configuration from an optional file and environment variables
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(EnvFiles); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Session.Roles = splitRoles(cfg.Session.Roles)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.session_ttl", 8*time.Hour)

	// API defaults
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.request_id_header", "X-Request-ID")

	// Export defaults
	v.SetDefault("export.output_dir", "exports")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Credentials and identity from environment
	_ = v.BindEnv("api.base_url", "DASHBOARD_API_URL")
	_ = v.BindEnv("api.token", "DASHBOARD_API_TOKEN")
	_ = v.BindEnv("session.profile_id", "DASHBOARD_PROFILE_ID")
	_ = v.BindEnv("session.position", "DASHBOARD_POSITION")
	_ = v.BindEnv("session.roles", "DASHBOARD_ROLES")
	_ = v.BindEnv("session.office_id", "DASHBOARD_OFFICE_ID")
	_ = v.BindEnv("session.governorate_id", "DASHBOARD_GOVERNORATE_ID")
	_ = v.BindEnv("registry.file", "DASHBOARD_REGISTRY_FILE")
	_ = v.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	// Validate API settings
	if c.API.BaseURL == "" {
		errs = append(errs, fmt.Errorf("api.base_url is required"))
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an absolute URL"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive"))
	}

	// Validate server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535"))
	}

	// Validate session
	if c.Session.Position != "" {
		if _, err := workflow.ParsePosition(c.Session.Position); err != nil {
			errs = append(errs, fmt.Errorf("session.position: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Actor converts the configured session into a workflow actor. Zero office
// and governorate ids mean unset.
func (s SessionConfig) Actor() workflow.Actor {
	position, _ := workflow.ParsePosition(s.Position)
	a := workflow.Actor{
		ProfileID: s.ProfileID,
		Position:  position,
		Roles:     append([]string(nil), s.Roles...),
	}
	if s.OfficeID != 0 {
		id := s.OfficeID
		a.OfficeID = &id
	}
	if s.GovernorateID != 0 {
		id := s.GovernorateID
		a.GovernorateID = &id
	}
	return a
}

// Address returns host:port for the HTTP listener
func (s ServerConfig) Address() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// splitRoles accepts both a YAML list and a comma separated env value
func splitRoles(in []string) []string {
	var out []string
	for _, r := range in {
		for _, part := range strings.Split(r, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func loadEnvFiles(files []string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return gotenv.Load(existing...)
}
