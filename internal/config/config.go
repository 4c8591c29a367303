// Package config loads the data source and restricted blocks settings.
//
// Settings live in two YAML files inside a config directory. Missing files
// are created with defaults on first load. Every value is checked against
// an embedded CUE schema, and all violations are reported together.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/placebreak/internal/restrict"
	"github.com/roach88/placebreak/internal/store"
)

// File names inside the config directory.
const (
	DataSourceFile       = "dataSource.yml"
	RestrictedBlocksFile = "restrictedBlocks.yml"
)

// Defaults.
const (
	DefaultSQLiteFile        = "data.db"
	DefaultTable             = "patch_place_break_tag"
	DefaultConnectionTimeout = 30000
	DefaultPoolSize          = 10
	DefaultEphemeralTTL      = 3 * time.Second
)

const redacted = "********"

const dataSourceHeader = `# Data source used to persist block tags.
# type: SQLITE (local file) or MYSQL (MySQL/MariaDB server).
# dbmsServer is ignored for SQLITE.
`

const restrictedBlocksHeader = `# Materials excluded from place-and-break detection.
# restrictionMode: BLACKLIST, WHITELIST or DISABLED.
`

// Host locates the database server.
type Host struct {
	Hostname   string `yaml:"hostname" json:"hostname"`
	Port       int    `yaml:"port" json:"port"`
	SSLEnabled bool   `yaml:"isSslEnabled" json:"isSslEnabled"`
}

// Credentials authenticate against the database server.
type Credentials struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// LogValue implements slog.LogValuer so passwords never reach the logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("password", redacted),
	)
}

// DBMSServer holds the networked database settings.
type DBMSServer struct {
	Host        Host        `yaml:"host" json:"host"`
	Credentials Credentials `yaml:"credentials" json:"credentials"`
	Database    string      `yaml:"database" json:"database"`
}

// SQLite holds the embedded database settings.
type SQLite struct {
	// File is resolved against the config directory when relative.
	File string `yaml:"file" json:"file"`
}

// ConnectionPool bounds the connection pool.
type ConnectionPool struct {
	// ConnectionTimeout is in milliseconds.
	ConnectionTimeout int `yaml:"connectionTimeout" json:"connectionTimeout"`
	PoolSize          int `yaml:"poolSize" json:"poolSize"`
}

// DataSource is the content of dataSource.yml.
type DataSource struct {
	Type           string         `yaml:"type" json:"type"`
	Table          string         `yaml:"table" json:"table"`
	SQLite         SQLite         `yaml:"sqlite" json:"sqlite"`
	DBMSServer     DBMSServer     `yaml:"dbmsServer" json:"dbmsServer"`
	ConnectionPool ConnectionPool `yaml:"connectionPool" json:"connectionPool"`
}

// RestrictedBlocks is the content of restrictedBlocks.yml.
type RestrictedBlocks struct {
	Materials       []string `yaml:"materials" json:"materials"`
	RestrictionMode string   `yaml:"restrictionMode" json:"restrictionMode"`
}

// Config is the full runtime configuration.
type Config struct {
	// Dir is the config directory the files were read from.
	Dir              string
	DataSource       DataSource
	RestrictedBlocks RestrictedBlocks
	EphemeralTTL     time.Duration
}

// DefaultDataSource returns the default dataSource.yml content.
func DefaultDataSource() DataSource {
	return DataSource{
		Type:   string(store.SQLite),
		Table:  DefaultTable,
		SQLite: SQLite{File: DefaultSQLiteFile},
		DBMSServer: DBMSServer{
			Host:        Host{Hostname: "localhost", Port: 3306, SSLEnabled: true},
			Credentials: Credentials{Username: "username", Password: "password"},
			Database:    "database",
		},
		ConnectionPool: ConnectionPool{
			ConnectionTimeout: DefaultConnectionTimeout,
			PoolSize:          DefaultPoolSize,
		},
	}
}

// DefaultRestrictedBlocks returns the default restrictedBlocks.yml content.
func DefaultRestrictedBlocks() RestrictedBlocks {
	return RestrictedBlocks{
		Materials:       []string{},
		RestrictionMode: string(restrict.Disabled),
	}
}

// Default returns the default configuration rooted at dir.
func Default(dir string) Config {
	return Config{
		Dir:              dir,
		DataSource:       DefaultDataSource(),
		RestrictedBlocks: DefaultRestrictedBlocks(),
		EphemeralTTL:     DefaultEphemeralTTL,
	}
}

// Load reads both files from dir, creating any that are missing, and
// validates the result.
func Load(dir string, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := WriteDefaults(dir, false, logger); err != nil {
		return Config{}, err
	}

	cfg := Default(dir)
	if err := readYAML(filepath.Join(dir, DataSourceFile), &cfg.DataSource); err != nil {
		return Config{}, err
	}
	if err := readYAML(filepath.Join(dir, RestrictedBlocksFile), &cfg.RestrictedBlocks); err != nil {
		return Config{}, err
	}
	cfg.normalize()

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	logger.Debug("configuration loaded",
		"dir", dir,
		"type", cfg.DataSource.Type,
		"table", cfg.DataSource.Table,
		"credentials", cfg.DataSource.DBMSServer.Credentials,
		"restriction_mode", cfg.RestrictedBlocks.RestrictionMode,
		"materials", len(cfg.RestrictedBlocks.Materials))
	return cfg, nil
}

// WriteDefaults writes default files into dir. Existing files are kept
// unless overwrite is set. Returns the paths written.
func WriteDefaults(dir string, overwrite bool, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	files := []struct {
		name    string
		header  string
		content any
	}{
		{DataSourceFile, dataSourceHeader, DefaultDataSource()},
		{RestrictedBlocksFile, restrictedBlocksHeader, DefaultRestrictedBlocks()},
	}

	var written []string
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if !overwrite {
			if _, err := os.Stat(path); err == nil {
				continue
			} else if !errors.Is(err, fs.ErrNotExist) {
				return written, fmt.Errorf("stat %s: %w", path, err)
			}
		}

		data, err := encodeYAML(f.header, f.content)
		if err != nil {
			return written, fmt.Errorf("encode %s: %w", f.name, err)
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		logger.Info("created default config file", "path", path)
		written = append(written, path)
	}
	return written, nil
}

func encodeYAML(header string, v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readYAML(path string, into any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// normalize upper-cases enum values so "sqlite" and "blacklist" are
// accepted.
func (c *Config) normalize() {
	c.DataSource.Type = strings.ToUpper(strings.TrimSpace(c.DataSource.Type))
	c.RestrictedBlocks.RestrictionMode = strings.ToUpper(strings.TrimSpace(c.RestrictedBlocks.RestrictionMode))
	if c.RestrictedBlocks.Materials == nil {
		c.RestrictedBlocks.Materials = []string{}
	}
}

// SQLitePath returns the absolute or config-relative SQLite file path.
func (c Config) SQLitePath() string {
	file := c.DataSource.SQLite.File
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.Dir, file)
}

// StoreOptions converts the data source settings for store.NewProvider.
func (c Config) StoreOptions() (store.Options, error) {
	typ, err := store.ParseBackendType(c.DataSource.Type)
	if err != nil {
		return store.Options{}, err
	}
	ds := c.DataSource
	return store.Options{
		Type:              typ,
		Table:             ds.Table,
		SQLitePath:        c.SQLitePath(),
		Host:              ds.DBMSServer.Host.Hostname,
		Port:              ds.DBMSServer.Host.Port,
		TLS:               ds.DBMSServer.Host.SSLEnabled,
		Username:          ds.DBMSServer.Credentials.Username,
		Password:          ds.DBMSServer.Credentials.Password,
		Database:          ds.DBMSServer.Database,
		PoolSize:          ds.ConnectionPool.PoolSize,
		ConnectionTimeout: time.Duration(ds.ConnectionPool.ConnectionTimeout) * time.Millisecond,
	}, nil
}

// Restrictions builds the restriction policy.
func (c Config) Restrictions() (restrict.Properties, error) {
	mode, err := restrict.ParseMode(c.RestrictedBlocks.RestrictionMode)
	if err != nil {
		return restrict.Properties{}, err
	}
	return restrict.NewProperties(c.RestrictedBlocks.Materials, mode), nil
}

// String renders the configuration with the password redacted.
func (c Config) String() string {
	ds := c.DataSource
	return fmt.Sprintf(
		"Config{dir=%s, type=%s, table=%s, sqlite=%s, host=%s:%d, tls=%t, username=%s, password=%s, database=%s, pool=%d, timeout=%dms, restriction=%s%v, ttl=%s}",
		c.Dir, ds.Type, ds.Table, c.SQLitePath(),
		ds.DBMSServer.Host.Hostname, ds.DBMSServer.Host.Port, ds.DBMSServer.Host.SSLEnabled,
		ds.DBMSServer.Credentials.Username, redacted, ds.DBMSServer.Database,
		ds.ConnectionPool.PoolSize, ds.ConnectionPool.ConnectionTimeout,
		c.RestrictedBlocks.RestrictionMode, c.RestrictedBlocks.Materials, c.EphemeralTTL)
}
