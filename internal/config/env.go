package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvAddr         = "SHOWCASE_ADDR"
	EnvConfig       = "SHOWCASE_CONFIG"
	EnvGatePassword = "SHOWCASE_GATE_PASSWORD"
	EnvDataDir      = "SHOWCASE_DATA_DIR"
)

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// ApplyEnv copies environment settings into c. Flags applied afterwards
// take precedence.
func (c *Config) ApplyEnv() {
	c.Addr = envOrDefault(EnvAddr, c.Addr)
	c.ConfigFilePath = envOrDefault(EnvConfig, c.ConfigFilePath)
	c.GatePassword = envOrDefault(EnvGatePassword, c.GatePassword)
	c.DBDir = envOrDefault(EnvDataDir, c.DBDir)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
