// config_test.go

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Equal(t, "./data/puzzletrack.db", cfg.DB.Path)
	require.Equal(t, ":5180", cfg.HTTP.Addr)
	require.Equal(t, 15*time.Minute, cfg.HTTP.RefreshInterval)
	require.Equal(t, 50, cfg.Discord.PageLimit)
	require.Equal(t, 5000, cfg.Discord.MaxMessages)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "puzzletrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
discord:
  token: file-token
  channel_id: "123"
db:
  path: /tmp/x.db
http:
  addr: ":9999"
`), 0o644))

	// env beats file
	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("PUZZLETRACK_ADDR", ":8888")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "env-token", cfg.Discord.Token)
	require.Equal(t, "123", cfg.Discord.ChannelID)
	require.Equal(t, "/tmp/x.db", cfg.DB.Path)
	require.Equal(t, ":8888", cfg.HTTP.Addr)
}

func TestLoadConfigLegacyTokensFile(t *testing.T) {
	dir := t.TempDir()
	tokens := filepath.Join(dir, "tokens.txt")
	require.NoError(t, os.WriteFile(tokens, []byte("the-token\n456\n"), 0o644))

	path := filepath.Join(dir, "puzzletrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("discord:\n  tokens_file: "+tokens+"\n"), 0o644))

	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DISCORD_CHANNEL_ID", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "the-token", cfg.Discord.Token)
	require.Equal(t, "456", cfg.Discord.ChannelID)
}

func TestLoadConfigTokensFileTruncated(t *testing.T) {
	dir := t.TempDir()
	tokens := filepath.Join(dir, "tokens.txt")
	require.NoError(t, os.WriteFile(tokens, []byte("only-token\n"), 0o644))

	path := filepath.Join(dir, "puzzletrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("discord:\n  tokens_file: "+tokens+"\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
