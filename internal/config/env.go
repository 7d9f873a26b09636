package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by trep.
const (
	EnvFile   = "TREP_FILE"
	EnvConfig = "TREP_CONFIG"
)

// DefaultLogFile is used when no flag, environment or config names a log.
const DefaultLogFile = "trep.dat"

// Env holds settings taken from the environment.
type Env struct {
	File   string
	Config string
}

// LoadEnv loads the given dotenv files (".env" when none) without overriding
// variables that are already set, then reads trep's variables.
func LoadEnv(files ...string) Env {
	_ = godotenv.Load(files...)
	return Env{
		File:   os.Getenv(EnvFile),
		Config: os.Getenv(EnvConfig),
	}
}

// ConfigPath returns the config file named by the environment, or the XDG default.
func (e Env) ConfigPath() string {
	if e.Config != "" {
		return e.Config
	}
	return DefaultConfigPath()
}

// ResolveLogPath picks the log path: flag, then environment, then config
// file, then DefaultLogFile.
func ResolveLogPath(flagValue string, flagSet bool, env Env, file FileConfig) string {
	switch {
	case flagSet && flagValue != "":
		return flagValue
	case env.File != "":
		return env.File
	case file.Log.Path != nil && *file.Log.Path != "":
		return *file.Log.Path
	case flagValue != "":
		return flagValue
	default:
		return DefaultLogFile
	}
}
