package logger

// Config selects the log level, the encoding and where entries go.
type Config struct {
	// Level is one of debug, info, warn or error.
	Level    string `mapstructure:"level" yaml:"level"`
	Encoding string `mapstructure:"encoding" yaml:"encoding"`
	// Development switches to zap's development preset with colored levels.
	Development bool     `mapstructure:"development" yaml:"development"`
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths"`
	Service     string   `mapstructure:"service" yaml:"service"`
}

const (
	DefaultLevel    = "info"
	DefaultEncoding = "json"
	DefaultService  = "newsroom-crawler"
)

// SetDefaults fills empty fields. Logs go to stdout unless configured.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stdout"}
	}
	if c.Service == "" {
		c.Service = DefaultService
	}
}
