package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvMongoURI, "")
	t.Setenv(EnvMongoDB, "")
	t.Setenv(EnvPort, "")
	t.Setenv(EnvConfigPath, "")
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultURL, cfg.Database.URL)
	assert.Equal(t, DefaultDatabase, cfg.Database.Name)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "users", cfg.Migration.Collection)
	assert.Equal(t, "mail", cfg.Migration.From)
	assert.Equal(t, "email", cfg.Migration.To)
	assert.Equal(t, "overwrite", cfg.Migration.Policy)
	assert.Equal(t, "schema_migrations", cfg.Migration.Ledger)
	assert.False(t, cfg.Migration.EnsureIndex)
}

func TestLoad(t *testing.T) {
	t.Run("file values", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		path := filepath.Join(dir, "docshift.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
version: "1"
project: todos
database:
  url: mongodb://db.internal:27017/appdb
  connect_timeout: 3s
server:
  port: 8081
migration:
  policy: skip
  index: legacy_mail
`), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "todos", cfg.Project)
		assert.Equal(t, "mongodb://db.internal:27017/appdb", cfg.Database.URL)
		assert.Equal(t, "appdb", cfg.Database.Name)
		assert.Equal(t, 3*time.Second, cfg.Database.ConnectTimeout)
		assert.Equal(t, 8081, cfg.Server.Port)
		assert.Equal(t, "skip", cfg.Migration.Policy)
		assert.Equal(t, "legacy_mail", cfg.Migration.Index)
		assert.Equal(t, "mail", cfg.Migration.From)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		path := filepath.Join(dir, "docshift.yaml")
		require.NoError(t, os.WriteFile(path, []byte("database:\n  url: mongodb://file:27017\n  name: filedb\n"), 0644))

		t.Setenv(EnvMongoURI, "mongodb://env:27017")
		t.Setenv(EnvMongoDB, "envdb")
		t.Setenv(EnvPort, "9090")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "mongodb://env:27017", cfg.Database.URL)
		assert.Equal(t, "envdb", cfg.Database.Name)
		assert.Equal(t, 9090, cfg.Server.Port)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "docshift.yaml")
		require.NoError(t, os.WriteFile(path, []byte("database: [unterminated"), 0644))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("no file found", func(t *testing.T) {
		clearEnv(t)
		oldCwd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(t.TempDir()))
		defer os.Chdir(oldCwd)

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultURL, cfg.Database.URL)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "docshift.yaml")

	cfg := Default()
	cfg.Project = "todos"
	cfg.Migration.EnsureIndex = true
	require.NoError(t, Save(cfg, path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "todos", loaded.Project)
	assert.True(t, loaded.Migration.EnsureIndex)
	assert.Equal(t, cfg.Database.ConnectTimeout, loaded.Database.ConnectTimeout)
}

func TestSetURL(t *testing.T) {
	t.Run("derived name follows the URI", func(t *testing.T) {
		cfg := Default()
		assert.False(t, cfg.NameExplicit())

		cfg.SetURL("mongodb://h1:27017,h2/appdb?replicaSet=rs0")
		assert.Equal(t, "appdb", cfg.Database.Name)

		cfg.SetURL("mongodb://h1:27017")
		assert.Equal(t, DefaultDatabase, cfg.Database.Name)
	})

	t.Run("explicit name is kept", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvMongoDB, "prod")
		path := filepath.Join(t.TempDir(), "docshift.yaml")
		require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\n"), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.True(t, cfg.NameExplicit())

		cfg.SetURL("mongodb://flag-host:27017/other")
		assert.Equal(t, "mongodb://flag-host:27017/other", cfg.Database.URL)
		assert.Equal(t, "prod", cfg.Database.Name)
	})

	t.Run("file name is kept", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "docshift.yaml")
		require.NoError(t, os.WriteFile(path, []byte("database:\n  name: filedb\n"), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)

		cfg.SetURL("mongodb://flag-host:27017/other")
		assert.Equal(t, "filedb", cfg.Database.Name)
	})
}

func TestFindPath(t *testing.T) {
	clearEnv(t)
	oldCwd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(oldCwd)

	assert.Equal(t, "", FindPath())

	require.NoError(t, os.WriteFile(".docshift.yml", []byte("version: \"1\"\n"), 0644))
	assert.Equal(t, ".docshift.yml", FindPath())

	t.Setenv(EnvConfigPath, "/etc/docshift.yaml")
	assert.Equal(t, "/etc/docshift.yaml", FindPath())
}

func TestDatabaseFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"mongodb://localhost:27017", ""},
		{"mongodb://localhost:27017/", ""},
		{"mongodb://user:pw@localhost:27017/app?retryWrites=true", "app"},
		{"mongodb+srv://cluster0.example.net/prod", "prod"},
		{"::not a uri", ""},
		{"mongodb://h1:27017,h2/appdb?replicaSet=rs0", "appdb"},
		{"mongodb://h1:27017,h2:27017/appdb", "appdb"},
		{"mongodb://h1,h2,h3/?replicaSet=rs0", ""},
		{"mongodb://user:p%40ss@h1:27017,h2/orders?authSource=admin", "orders"},
		{"mongodb://localhost/my%20db", "my db"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, DatabaseFromURI(tt.uri))
		})
	}
}
