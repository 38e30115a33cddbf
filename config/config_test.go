package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("RequiresJWTSecret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("CONFIG_FILE", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("CONFIG_FILE", "")
		t.Setenv("PORT", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "scam-images", cfg.R2.BucketName)
		assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
		assert.Equal(t, 40.0, cfg.Map.DefaultLatitude)
		assert.Equal(t, -74.5, cfg.Map.DefaultLongitude)
		assert.Equal(t, 9, cfg.Map.DefaultZoom)
		assert.Equal(t, 13, cfg.Map.LocatedZoom)
	})

	t.Run("FileThenEnv", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(file, []byte("port: \"9000\"\nmap:\n  default_zoom: 5\ngemini:\n  model: gemini-1.5-flash\n"), 0o600))

		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("CONFIG_FILE", file)
		t.Setenv("PORT", "")
		t.Setenv("GEMINI_MODEL", "gemini-2.5-flash")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "9000", cfg.Port)
		assert.Equal(t, 5, cfg.Map.DefaultZoom)
		assert.Equal(t, 13, cfg.Map.LocatedZoom)
		assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	assert.Equal(t, "postgres://u@h/db", DatabaseConfig{URL: "postgres://u@h/db", Host: "ignored"}.DSN())
	assert.Equal(t,
		"host=localhost user=app password=pw dbname=scams port=5432 sslmode=disable",
		DatabaseConfig{Host: "localhost", User: "app", Password: "pw", Name: "scams", Port: "5432"}.DSN())
}
