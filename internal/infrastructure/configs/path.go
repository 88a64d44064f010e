package configs

import (
	"flag"
	"os"

	"github.com/lienzo-games/lienzo/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file from the --config flag, the
// LIENZO_CONFIG env var, or a few conventional locations. An empty result
// means defaults only, which is a fully working setup.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("LIENZO_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/lienzo/config.yaml",
			"/app/config.yaml",
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
