package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/stretchr/testify/require"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/config"
)

const manifestJSON = `{
  "formatVersion": 1,
  "game": "minecraft",
  "versionId": "2024.3.9",
  "name": "Test",
  "files": [
    {
      "path": "mods/SkyHanni.jar",
      "hashes": {"sha1": "1", "sha512": "2"},
      "downloads": ["https://github.com/hannibal002/SkyHanni/releases/download/0.20/SkyHanni.jar"],
      "fileSize": 1
    }
  ],
  "dependencies": {"minecraft": "1.8.9"}
}
`

func TestRunUsageErrors(t *testing.T) {
	require.Equal(t, 2, run([]string{"-log-level", "loud", "update"}))
	require.Equal(t, 2, run([]string{"-no-such-flag"}))
}

func TestInitDiscoversComponents(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "manifests"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifests", "release.json"), []byte(manifestJSON), 0644))

	cfgPath := filepath.Join(dir, "modpack.hcl")
	require.Equal(t, 0, run([]string{"-config", cfgPath, "init"}))

	cfg, diags := config.Load(hclparse.NewParser(), cfgPath)
	require.False(t, diags.HasErrors(), diags.Error())
	require.Equal(t, []modrelease.Component{{ID: "hannibal002/SkyHanni"}}, cfg.Components)

	// Refuses to overwrite without -f.
	require.Equal(t, 1, run([]string{"-config", cfgPath, "init"}))
	require.Equal(t, 0, run([]string{"-config", cfgPath, "init", "-f"}))

	// Freshly written files are already formatted.
	require.Equal(t, 0, run([]string{"-config", cfgPath, "fmt"}))
}

func TestFormatRewrites(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "modpack.hcl")
	require.NoError(t, os.WriteFile(cfgPath, []byte("name=\"Pack\"\nconcurrency=2\n"), 0644))

	require.Equal(t, 0, run([]string{"-config", cfgPath, "fmt", "-w"}))
	got, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "name        = \"Pack\"\nconcurrency = 2\n", string(got))

	require.NoError(t, os.WriteFile(cfgPath, []byte("colour = 1\n"), 0644))
	require.Equal(t, 1, run([]string{"-config", cfgPath, "fmt"}))
}

func TestCleanKeepsPendingChangelogs(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "modpack.hcl")
	require.NoError(t, os.WriteFile(cfgPath, config.Encode(config.Default()), 0644))

	temp := filepath.Join(dir, "temp")
	require.NoError(t, os.MkdirAll(filepath.Join(temp, "releases.db"), 0755))
	for _, name := range []string{"mod.jar", "mod.jar.sha1", "release.version", "Pack-1.mrpack"} {
		require.NoError(t, os.WriteFile(filepath.Join(temp, name), []byte("x"), 0644))
	}

	require.Equal(t, 0, run([]string{"-config", cfgPath, "clean"}))
	entries, err := os.ReadDir(temp)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "release.version", entries[0].Name())

	require.Equal(t, 0, run([]string{"-config", cfgPath, "clean", "-all"}))
	entries, err = os.ReadDir(temp)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestModlist(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "modpack.hcl")
	require.NoError(t, os.WriteFile(cfgPath, config.Encode(config.Default()), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "manifests"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifests", "release.json"), []byte(manifestJSON), 0644))

	require.Equal(t, 0, run([]string{"-config", cfgPath, "modlist"}))
	page, err := os.ReadFile(filepath.Join(dir, "modlist.html"))
	require.NoError(t, err)
	require.Contains(t, string(page), ">SkyHanni.jar</a>")

	require.Equal(t, 2, run([]string{"-config", cfgPath, "modlist", "-channel", "nightly"}))
}
