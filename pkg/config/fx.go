package config

import (
	"os"

	"github.com/pseudomuto/oraclekeeper/pkg/consts"
	"go.uber.org/fx"
)

var Module = fx.Module("config", fx.Provide(
	// Function attempts to load the configuration from oraclekeeper.yaml (or
	// $ORACLEKEEPER_CONFIG) if it exists. Returns nil if the file doesn't exist,
	// allowing commands that don't require config (like init, help, version) to
	// function properly.
	func() (*Config, error) {
		path := Path()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, nil
		}

		return LoadConfigFile(path)
	},
))

// Path returns the configuration file location.
func Path() string {
	if path := os.Getenv(consts.ConfigFileEnv); path != "" {
		return path
	}

	return consts.ConfigFile
}
