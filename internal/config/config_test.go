package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, DefaultDB, c.DB)
	assert.Equal(t, DefaultCheckpointInterval, c.CheckpointInterval)
	assert.Equal(t, 0, c.StableCheckpoints)
	assert.Equal(t, DefaultPVDepth, c.PVDepth)
	assert.False(t, c.TerminateOnSettledChildren)
	assert.Equal(t, "text", c.Format)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("LOOKAHEAD_DB", "/tmp/env.db")
	t.Setenv("LOOKAHEAD_CHECKPOINT_INTERVAL", "25")
	t.Setenv("LOOKAHEAD_TERMINATE_ON_SETTLED_CHILDREN", "true")

	c, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", c.DB)
	assert.Equal(t, 25, c.CheckpointInterval)
	assert.True(t, c.TerminateOnSettledChildren)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookahead.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db: file.db\nstable_checkpoints: 3\nformat: json\n"), 0o644))

	v := New()
	require.NoError(t, ReadFile(v, path))
	c, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "file.db", c.DB)
	assert.Equal(t, 3, c.StableCheckpoints)
	assert.Equal(t, "json", c.Format)
}

func TestReadFileEmptyPath(t *testing.T) {
	assert.NoError(t, ReadFile(New(), ""))
}

func TestReadFileMissing(t *testing.T) {
	err := ReadFile(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{DB: "x.db", CheckpointInterval: 1, Format: "text"}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty db", func(c *Config) { c.DB = "" }, "db must not be empty"},
		{"zero interval", func(c *Config) { c.CheckpointInterval = 0 }, "checkpoint_interval"},
		{"negative stable", func(c *Config) { c.StableCheckpoints = -1 }, "stable_checkpoints"},
		{"negative pv", func(c *Config) { c.PVDepth = -1 }, "pv_depth"},
		{"bad format", func(c *Config) { c.Format = "xml" }, "invalid format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
