package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvConfigPath  = "CONN_TUI_CONFIG"
	EnvServersPath = "CONN_TUI_SERVERS"
	EnvLogLevel    = "CONN_TUI_LOG_LEVEL"
	EnvLogFile     = "CONN_TUI_LOG_FILE"
)

// Env holds overrides read from the process environment.
type Env struct {
	ConfigPath  string
	ServersPath string
	LogLevel    string
	LogFile     string
}

// LoadEnv reads an optional .env file next to config.toml, then the process
// environment. Variables already set in the environment win.
func LoadEnv() (Env, error) {
	if p, err := configFile(".env"); err == nil {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return envFromOS(), err
		}
	}
	return envFromOS(), nil
}

func envFromOS() Env {
	return Env{
		ConfigPath:  os.Getenv(EnvConfigPath),
		ServersPath: os.Getenv(EnvServersPath),
		LogLevel:    os.Getenv(EnvLogLevel),
		LogFile:     os.Getenv(EnvLogFile),
	}
}
