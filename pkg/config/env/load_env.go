package env

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from .env files. ENV_PATH, when set,
// replaces defaultPaths. Missing files are only an error in local mode.
func LoadDotEnv(env string, defaultPaths ...string) error {
	var paths []string
	if os.Getenv("ENV_PATH") != "" {
		paths = []string{os.Getenv("ENV_PATH")}
	} else {
		slog.Info("ENV_PATH is not set, using default paths", "defaultPaths", defaultPaths)
		paths = defaultPaths
	}

	err := godotenv.Load(paths...)
	if err != nil {
		if env == "local" || env == "" {
			slog.Error("Failed to load environment variables in local mode", "error", err)
			return err
		}
		slog.Debug("Skipping .env ...")
	}

	return nil
}
