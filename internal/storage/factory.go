package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JamesPrial/todo-db/internal/pathutil"
)

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendJSON     = "json"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

// Options selects and locates a storage backend.
type Options struct {
	// Backend is one of the Backend* names; empty means sqlite.
	Backend string

	// DataDir is the directory holding file-based stores.
	DataDir string

	// SQLitePath overrides <DataDir>/todoDB.sqlite. Must stay inside DataDir.
	SQLitePath string

	// JSONPath overrides <DataDir>/todoDB.json. Must stay inside DataDir.
	JSONPath string

	// PostgresDSN is required for the postgres backend.
	PostgresDSN string

	// MySQLDSN is required for the mysql backend.
	MySQLDSN string
}

// BackendName returns the normalised backend name, defaulting to sqlite.
func (o Options) BackendName() string {
	name := strings.ToLower(strings.TrimSpace(o.Backend))
	if name == "" {
		return BackendSQLite
	}
	return name
}

// Open returns the configured storage backend, creating the todoDB schema
// on first use.
//
// Returns an error wrapping ErrUnknownBackend for an unrecognised name, and
// an error if a custom file path escapes DataDir or a DSN is missing.
func Open(ctx context.Context, opts Options) (StorageBackend, error) {
	switch opts.BackendName() {
	case BackendSQLite:
		path, err := resolveFilePath(opts.DataDir, opts.SQLitePath, DatabaseName+".sqlite")
		if err != nil {
			return nil, fmt.Errorf("failed to determine SQLite database path: %w", err)
		}
		return NewSQLiteBackend(ctx, path)

	case BackendJSON:
		path, err := resolveFilePath(opts.DataDir, opts.JSONPath, DatabaseName+".json")
		if err != nil {
			return nil, fmt.Errorf("failed to determine JSON data path: %w", err)
		}
		return NewJSONBackend(path)

	case BackendPostgres:
		if strings.TrimSpace(opts.PostgresDSN) == "" {
			return nil, fmt.Errorf("postgres backend requires a connection string")
		}
		return NewPostgresBackend(ctx, opts.PostgresDSN)

	case BackendMySQL:
		if strings.TrimSpace(opts.MySQLDSN) == "" {
			return nil, fmt.Errorf("mysql backend requires a DSN")
		}
		return NewMySQLBackend(ctx, opts.MySQLDSN)

	default:
		return nil, fmt.Errorf("%w: %q. Expected one of sqlite, json, postgres, mysql", ErrUnknownBackend, opts.Backend)
	}
}

// resolveFilePath returns custom validated against dataDir, or the default
// file name inside dataDir when custom is empty.
func resolveFilePath(dataDir, custom, defaultName string) (string, error) {
	if strings.TrimSpace(dataDir) == "" {
		return "", fmt.Errorf("data directory is not set")
	}

	custom = strings.TrimSpace(custom)
	if custom != "" {
		safePath, err := pathutil.ResolveSafePath(dataDir, custom)
		if err != nil {
			return "", fmt.Errorf("invalid custom path: %w", err)
		}
		return safePath, nil
	}

	return filepath.Join(dataDir, defaultName), nil
}
