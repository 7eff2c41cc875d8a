package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqsense/pcchain/registration"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := loadConfig("")
		require.NoError(t, err)
		assert.Equal(t, defaultConfig(), cfg)
		assert.Equal(t, registration.DefaultTimeout, cfg.Registration.Timeout)
		assert.NoError(t, cfg.validate())
	})
	t.Run("Empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.yaml")
		writeFile(t, path, "")
		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, defaultConfig(), cfg)
	})
	t.Run("Override", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pcchain.yaml")
		writeFile(t, path, `
scans:
  dir: scans
store:
  type: sqlite
  sqlite: records.db
registration:
  backend: icp
  timeout: 90s
  icp:
    match_range: 0.5
output:
  html: out.html
  palette: ["#ff0000", "00ff00"]
orthonormalize: true
`)
		cfg, err := loadConfig(path)
		require.NoError(t, err)
		require.NoError(t, cfg.validate())

		assert.Equal(t, "scans", cfg.Scans.Dir)
		assert.Equal(t, `(?i)\.(pcd|ply)$`, cfg.Scans.Pattern)
		assert.Equal(t, storeSQLite, cfg.Store.Type)
		assert.Equal(t, "records.db", cfg.Store.SQLite)
		assert.Equal(t, "default", cfg.Store.Namespace)
		assert.Equal(t, backendICP, cfg.Registration.Backend)
		assert.Equal(t, 90*time.Second, cfg.Registration.Timeout)
		assert.Equal(t, float32(0.5), cfg.Registration.ICP.MatchRange)
		assert.Equal(t, registration.DefaultLambdaS3, cfg.Registration.LambdaS3)
		assert.Equal(t, "out.html", cfg.Output.HTML)
		assert.Equal(t, []string{"#ff0000", "00ff00"}, cfg.Output.Palette)
		assert.True(t, cfg.Orthonormalize)
	})
	t.Run("UnknownField", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pcchain.yaml")
		writeFile(t, path, "registration:\n  lambda: 1\n")
		_, err := loadConfig(path)
		assert.Error(t, err)
	})
	t.Run("Missing", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestValidate(t *testing.T) {
	testCases := map[string]struct {
		modify func(*config)
		ok     bool
	}{
		"Default": {
			modify: func(*config) {},
			ok:     true,
		},
		"SQLiteWithoutPath": {
			modify: func(c *config) { c.Store.Type = storeSQLite },
		},
		"UnknownStore": {
			modify: func(c *config) { c.Store.Type = "s3" },
		},
		"CommandWithoutBinary": {
			modify: func(c *config) { c.Registration.Binary = "" },
		},
		"ICPWithoutBinary": {
			modify: func(c *config) {
				c.Registration.Backend = backendICP
				c.Registration.Binary = ""
			},
			ok: true,
		},
		"UnknownBackend": {
			modify: func(c *config) { c.Registration.Backend = "ndt" },
		},
		"NegativeTimeout": {
			modify: func(c *config) { c.Registration.Timeout = -time.Second },
		},
	}
	for name, tt := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(&cfg)
			err := cfg.validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
