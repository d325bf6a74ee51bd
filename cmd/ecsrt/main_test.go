package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsUsesEnvConfig(t *testing.T) {
	t.Setenv("ECSRT_CONFIG", "/etc/ecsrt.toml")
	f, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "/etc/ecsrt.toml", f.config)

	f, err = parseFlags([]string{"-c", "x.toml", "--headless", "--scene", "s.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "x.toml", f.config)
	assert.True(t, f.headless)
	assert.Equal(t, "s.yaml", f.scene)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecsrt.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scene]\nsource = \"postgres\"\nname = \"village\"\n"), 0o644))

	cfg, err := loadConfig(&flags{config: path})
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Scene.Source)
	assert.Equal(t, "ecsrt.log", cfg.Logging.File, "terminal mode logs to a file")

	cfg, err = loadConfig(&flags{config: path, scene: "other.yaml", headless: true})
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Scene.Source)
	assert.Equal(t, "other.yaml", cfg.Scene.Path)
	assert.Equal(t, "headless", cfg.Render.Mode)
	assert.Empty(t, cfg.Logging.File)
}

func TestRunHeadlessScene(t *testing.T) {
	dir := t.TempDir()
	scenePath := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(scenePath, []byte(`
name: tiny
contexts:
  - id: world
    entities:
      - {kind: player, x: 0, y: 0}
`), 0o644))
	cfgPath := filepath.Join(dir, "ecsrt.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[loop]
update_interval = "5ms"
frame_interval = "5ms"

[logging]
level = "error"

[scene]
scripts_dir = "`+dir+`"
`), 0o644))

	err := run([]string{"--config", cfgPath, "--scene", scenePath, "--headless", "--duration", "50ms"})
	assert.NoError(t, err)
}

func TestRunReportsBadScene(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ecsrt.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[logging]\nlevel = \"error\"\n"), 0o644))
	err := run([]string{"--config", cfgPath, "--scene", filepath.Join(dir, "missing.yaml"), "--headless"})
	assert.Error(t, err)
}
