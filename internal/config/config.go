// Package config loads runtime settings from TODO_* environment variables
// and an optional YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/JamesPrial/todo-db/internal/storage"
)

// Keys recognised in the config file; the environment form is TODO_<KEY>.
const (
	KeyStorageBackend = "storage_backend"
	KeyDataDir        = "data_dir"
	KeySQLitePath     = "sqlite_path"
	KeyJSONPath       = "json_path"
	KeyPostgresDSN    = "postgres_dsn"
	KeyMySQLDSN       = "mysql_dsn"
	KeyListenAddr     = "listen_addr"
	KeyLogLevel       = "log_level"
)

// Config is the resolved runtime configuration.
type Config struct {
	StorageBackend string
	DataDir        string
	SQLitePath     string
	JSONPath       string
	PostgresDSN    string
	MySQLDSN       string
	ListenAddr     string
	LogLevel       string
}

// Load reads configuration. configFile may be empty; when set it must exist.
// Environment variables override file values.
func Load(configFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TODO")
	v.AutomaticEnv()

	v.SetDefault(KeyStorageBackend, storage.BackendSQLite)
	v.SetDefault(KeyDataDir, defaultDataDir())
	v.SetDefault(KeyListenAddr, ":8080")
	v.SetDefault(KeyLogLevel, "info")

	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := Config{
		StorageBackend: v.GetString(KeyStorageBackend),
		DataDir:        expandHome(v.GetString(KeyDataDir)),
		SQLitePath:     v.GetString(KeySQLitePath),
		JSONPath:       v.GetString(KeyJSONPath),
		PostgresDSN:    v.GetString(KeyPostgresDSN),
		MySQLDSN:       v.GetString(KeyMySQLDSN),
		ListenAddr:     getStringOrDefault(v, KeyListenAddr, ":8080"),
		LogLevel:       getStringOrDefault(v, KeyLogLevel, "info"),
	}
	return cfg, nil
}

// StorageOptions converts the config into storage.Open options.
func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:     c.StorageBackend,
		DataDir:     c.DataDir,
		SQLitePath:  c.SQLitePath,
		JSONPath:    c.JSONPath,
		PostgresDSN: c.PostgresDSN,
		MySQLDSN:    c.MySQLDSN,
	}
}

// getStringOrDefault treats an explicitly empty value as unset.
func getStringOrDefault(v *viper.Viper, key, defaultValue string) string {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".todo"
	}
	return filepath.Join(home, ".todo")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
