package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultURL        = "mongodb://localhost:27017"
	DefaultDatabase   = "docshift"
	DefaultPort       = 3000
	DefaultCollection = "users"
	DefaultFromField  = "mail"
	DefaultToField    = "email"
	DefaultLedger     = "schema_migrations"
	DefaultPolicy     = "overwrite"
)

// Environment variables consulted by Load.
const (
	EnvConfigPath = "DOCSHIFT_CONFIG"
	EnvMongoURI   = "MONGODB_URI"
	EnvMongoDB    = "MONGODB_DB"
	EnvPort       = "PORT"
)

var searchLocations = []string{"docshift.yaml", "docshift.yml", ".docshift.yaml", ".docshift.yml"}

// Config represents the docshift.yaml configuration structure
type Config struct {
	Version string `yaml:"version"`
	Project string `yaml:"project"`

	Database struct {
		URL              string        `yaml:"url"`
		Name             string        `yaml:"name,omitempty"`
		ConnectTimeout   time.Duration `yaml:"connect_timeout"`
		OperationTimeout time.Duration `yaml:"operation_timeout"`
	} `yaml:"database"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Migration struct {
		Name        string `yaml:"name"`
		Collection  string `yaml:"collection"`
		From        string `yaml:"from"`
		To          string `yaml:"to"`
		Index       string `yaml:"index"`
		Policy      string `yaml:"policy"`
		EnsureIndex bool   `yaml:"ensure_index"`
		Ledger      string `yaml:"ledger"`
	} `yaml:"migration"`

	// set when Database.Name was filled in from the URI or the default
	derivedName bool
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: "1"}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration file (if any), then layers .env and process
// environment on top. An empty path searches the usual locations; a missing
// file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{Version: "1"}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFile parses a YAML configuration file without consulting the
// environment. It returns nil, nil when path is empty and no file is found.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		path = FindPath()
		if path == "" {
			return nil, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// FindPath returns the config file to use, honouring DOCSHIFT_CONFIG.
func FindPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}

	for _, loc := range searchLocations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Save writes cfg as YAML to path (default docshift.yaml).
func Save(cfg *Config, path string) error {
	if path == "" {
		path = searchLocations[0]
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SetURL replaces the connection URI. A database name that was not set
// explicitly is derived again from the new URI.
func (c *Config) SetURL(uri string) {
	c.Database.URL = uri
	if c.derivedName {
		c.Database.Name = nameFor(uri)
	}
}

// NameExplicit reports whether the database name came from the file or the
// environment rather than from the URI or the default.
func (c *Config) NameExplicit() bool {
	return !c.derivedName
}

func nameFor(uri string) string {
	if name := DatabaseFromURI(uri); name != "" {
		return name
	}
	return DefaultDatabase
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv(EnvMongoDB); v != "" {
		c.Database.Name = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Database.URL == "" {
		c.Database.URL = DefaultURL
	}
	if c.Database.Name == "" {
		c.derivedName = true
		c.Database.Name = nameFor(c.Database.URL)
	}
	if c.Database.ConnectTimeout == 0 {
		c.Database.ConnectTimeout = 10 * time.Second
	}
	if c.Database.OperationTimeout == 0 {
		c.Database.OperationTimeout = 5 * time.Minute
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Migration.Name == "" {
		c.Migration.Name = "rename_mail_to_email"
	}
	if c.Migration.Collection == "" {
		c.Migration.Collection = DefaultCollection
	}
	if c.Migration.From == "" {
		c.Migration.From = DefaultFromField
	}
	if c.Migration.To == "" {
		c.Migration.To = DefaultToField
	}
	if c.Migration.Policy == "" {
		c.Migration.Policy = DefaultPolicy
	}
	if c.Migration.Ledger == "" {
		c.Migration.Ledger = DefaultLedger
	}
}

// DatabaseFromURI extracts the database name from the path of a mongodb://
// or mongodb+srv:// URI, returning "" when the URI names none. Only the text
// between the host list and the query is read, so seed lists such as
// "h1:27017,h2" are accepted.
func DatabaseFromURI(uri string) string {
	_, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return ""
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest = rest[:i]
	}

	_, path, ok := strings.Cut(rest, "/")
	if !ok {
		return ""
	}

	name, err := url.PathUnescape(path)
	if err != nil {
		return ""
	}
	return name
}
