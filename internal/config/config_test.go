package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwdware/ward/internal/config"
)

func TestLoadCreatesDefaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := config.Load(root)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultIntervalDays, cfg.Verify.IntervalDays)
	assert.Equal(t, config.DefaultRetentionDays, cfg.Prune.RetentionDays)
	assert.False(t, cfg.General.Verbose)

	_, err = os.Stat(config.ConfigPath(root))
	assert.NoError(t, err, "defaults should have been written to disk")
}

func TestLoadRoundTrip(t *testing.T) {
	root := t.TempDir()

	want := config.Default()
	want.Verify.IntervalDays = 7
	want.Prune.RetentionDays = 0
	want.General.Verbose = true
	require.NoError(t, config.Save(root, want))

	got, err := config.Load(root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadRejectsNegativeValues(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(config.ControlDir(root), 0o755))
	require.NoError(t, os.WriteFile(config.ConfigPath(root), []byte("verify:\n  interval_days: -1\n"), 0o644))

	_, err := config.Load(root)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(config.ControlDir(root), 0o755))
	require.NoError(t, os.WriteFile(config.ConfigPath(root), []byte("verify: [not a mapping"), 0o644))

	_, err := config.Load(root)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	cfg := config.Default()
	cfg.General.Verbose = true

	s := cfg.Resolve()
	assert.Equal(t, cfg.Verify.IntervalDays, s.IntervalDays)
	assert.Equal(t, cfg.Prune.RetentionDays, s.RetentionDays)
	assert.True(t, s.Verbose)
}
