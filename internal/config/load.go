package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Setup configures v to read config.yaml, .env files and environment variables.
// An explicit configFile must exist; the implicit search path may be empty.
func Setup(v *viper.Viper, configFile string) error {
	loadEnvFile()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	SetDefaults(v)

	if err := bindEnvironmentVariables(v); err != nil {
		return fmt.Errorf("bind environment variables: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", configFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	return nil
}

// loadEnvFile loads .env file (ignores error if file doesn't exist).
func loadEnvFile() {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		_ = godotenv.Load(envFile)
		return
	}
	_ = godotenv.Load()
}

// bindEnvironmentVariables binds conventional variable names that do not
// follow the key replacer scheme.
func bindEnvironmentVariables(v *viper.Viper) error {
	bindings := map[string][]string{
		"app.environment":         {"APP_ENV"},
		"app.debug":               {"APP_DEBUG"},
		"logger.level":            {"LOG_LEVEL"},
		"logger.encoding":         {"LOG_FORMAT"},
		"state.dsn":               {"STATE_DSN", "DATABASE_URL"},
		"state.redis.address":     {"REDIS_ADDR"},
		"state.redis.password":    {"REDIS_PASSWORD"},
		"elasticsearch.addresses": {"ELASTICSEARCH_ADDRESSES", "ELASTICSEARCH_HOSTS"},
		"server.address":          {"SERVER_ADDRESS"},
		"server.jwt_secret":       {"AUTH_JWT_SECRET"},
	}

	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}

	return nil
}

// Load decodes the settings held by v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToTimeHookFunc("2006-01-02"),
		),
		WeaklyTypedInput: true,
		Result:           &cfg,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	if err = decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigParseFailed, err)
	}

	cfg.applyDerived()

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigValidationFailed, err)
	}

	return &cfg, nil
}

// applyDerived fills values that depend on other settings.
func (c *Config) applyDerived() {
	if len(c.Registry) == 0 {
		c.Registry = DefaultRegistry()
	}
	if len(c.Crawl.Terms) == 0 {
		c.Crawl.Terms = append([]string(nil), DefaultTerms...)
	}
	if c.App.Debug {
		c.Logger.Level = "debug"
	}
	if c.App.IsDevelopment() {
		c.Logger.Development = true
		c.Logger.Encoding = "console"
	}
	c.Logger.SetDefaults()
}

// Targets returns the registry entries selected by Crawl.Organizations, in
// registry order. Names match case-insensitively.
func (c *Config) Targets() ([]Organization, error) {
	return SelectOrganizations(c.Registry, c.Crawl.Organizations)
}

// SelectOrganizations filters registry by names. An empty names list selects
// every organization. Unknown names yield ErrUnknownOrganization.
func SelectOrganizations(registry []Organization, names []string) ([]Organization, error) {
	if len(names) == 0 {
		return cloneOrganizations(registry), nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[strings.ToLower(strings.TrimSpace(name))] = false
	}

	selected := make([]Organization, 0, len(names))
	for _, org := range registry {
		key := strings.ToLower(org.Name)
		if _, ok := wanted[key]; ok {
			wanted[key] = true
			selected = append(selected, cloneOrganization(org))
		}
	}

	for _, name := range names {
		if !wanted[strings.ToLower(strings.TrimSpace(name))] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOrganization, name)
		}
	}

	return selected, nil
}

func cloneOrganizations(orgs []Organization) []Organization {
	out := make([]Organization, len(orgs))
	for i, org := range orgs {
		out[i] = cloneOrganization(org)
	}
	return out
}

func cloneOrganization(org Organization) Organization {
	return Organization{Name: org.Name, Seeds: append([]string(nil), org.Seeds...)}
}
