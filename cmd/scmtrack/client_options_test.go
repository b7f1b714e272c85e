package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/helixml/scmtrack"
	"github.com/helixml/scmtrack/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions_MissingSettingsFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewAppConfigWithOptions(
		config.WithDataDir(dir),
		config.WithDBURL("sqlite:///"+filepath.Join(dir, "opts.db")),
		config.WithSettingsFile(filepath.Join(dir, "missing.yaml")),
	)

	opts, err := clientOptions(cfg, nil)
	require.NoError(t, err)
	assert.Len(t, opts, 7)

	client, err := scmtrack.New(append(opts, scmtrack.WithoutBackground())...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, config.DefaultRefKeywords, client.Settings().RefKeywords())
	assert.Empty(t, client.APIKeys())
}

func TestClientOptions_SettingsAndKeys(t *testing.T) {
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(settingsPath, []byte("ref_keywords: [refs, see]\n"), 0o600))

	cfg := config.NewAppConfigWithOptions(
		config.WithDataDir(dir),
		config.WithDBURL("sqlite:///"+filepath.Join(dir, "opts.db")),
		config.WithSettingsFile(settingsPath),
		config.WithAPIKeys([]string{"k1", "k2"}),
	)

	opts, err := clientOptions(cfg, nil)
	require.NoError(t, err)
	assert.Len(t, opts, 8)

	client, err := scmtrack.New(append(opts, scmtrack.WithoutBackground())...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, []string{"refs", "see"}, client.Settings().RefKeywords())
	assert.Equal(t, []string{"k1", "k2"}, client.APIKeys())
}

func TestClientOptions_InvalidSettings(t *testing.T) {
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(settingsPath, []byte("ref_keywords: [unclosed\n"), 0o600))

	cfg := config.NewAppConfigWithOptions(config.WithSettingsFile(settingsPath))

	_, err := clientOptions(cfg, nil)
	assert.Error(t, err)
}

func TestApplyServeOverrides(t *testing.T) {
	cfg := config.NewAppConfig()

	unchanged := applyServeOverrides(cfg, "", 0)
	assert.Equal(t, cfg.Addr(), unchanged.Addr())

	changed := applyServeOverrides(cfg, "127.0.0.1", 9090)
	assert.Equal(t, "127.0.0.1:9090", changed.Addr())
}
