// Package common wires configuration, logging and the crawl pipeline for the
// CLI commands.
package common

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/jonesrussell/newsroom-crawler/internal/config"
	"github.com/jonesrussell/newsroom-crawler/internal/logger"
)

// CommandDeps is what every command needs before it touches the network or
// the filesystem.
type CommandDeps struct {
	Logger logger.Logger
	Config *config.Config
}

// NewCommandDeps decodes the global viper settings, which the root command
// has already bound to flags, files and the environment, and builds the
// logger they describe.
func NewCommandDeps() (CommandDeps, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return CommandDeps{}, err
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("init logging: %w", err)
	}
	log.Debug("Configuration loaded",
		logger.String("config_file", viper.ConfigFileUsed()),
		logger.String("environment", cfg.App.Environment),
		logger.Strings("organizations", cfg.Crawl.Organizations),
	)

	return CommandDeps{Logger: log, Config: cfg}, nil
}
