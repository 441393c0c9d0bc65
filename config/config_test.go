package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/stretchr/testify/require"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/manifest"
)

const example = `
name          = "TestPack"
project_id    = "abc123"
game_versions = ["1.8.9", "1.8.8"]
featured      = false
concurrency   = 4
temp_dir      = "build"

modlist {
  template = "site/index.html"
}

component "Moulberry/NotEnoughUpdates" {}

component "Skytils/SkytilsMod" {
  asset_suffix = "-all.jar"
}
`

func TestParse(t *testing.T) {
	t.Parallel()

	cfg, diags := Parse(hclparse.NewParser(), []byte(example), "modpack.hcl")
	require.False(t, diags.HasErrors(), diags.Error())

	require.Equal(t, "TestPack", cfg.Name)
	require.Equal(t, "Hypixel Skyblock Modpack", cfg.Title)
	require.Equal(t, "abc123", cfg.ProjectID)
	require.Equal(t, []string{"1.8.9", "1.8.8"}, cfg.GameVersions)
	require.Equal(t, []string{"forge"}, cfg.Loaders)
	require.False(t, cfg.Featured)
	require.Equal(t, 4, cfg.Concurrency)
	require.Equal(t, "manifests", cfg.ManifestsDir)
	require.Equal(t, "build", cfg.TempDir)
	require.Equal(t, ModList{Template: "site/index.html", Selector: DefaultSelector, Output: "modlist.html"}, cfg.ModList)
	require.Equal(t, []modrelease.Component{
		{ID: "Moulberry/NotEnoughUpdates"},
		{ID: "Skytils/SkytilsMod", AssetSuffix: "-all.jar"},
	}, cfg.Components)
}

func TestParseEmptyUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, diags := Parse(hclparse.NewParser(), nil, "empty.hcl")
	require.False(t, diags.HasErrors(), diags.Error())
	require.Equal(t, Default(), cfg)
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	for name, src := range map[string]string{
		"syntax":      `name = `,
		"unknown":     `colour = "red"`,
		"component":   `component "not-a-repo" {}`,
		"duplicate":   "component \"a/b\" {}\ncomponent \"a/b\" {}\n",
		"concurrency": `concurrency = -1`,
		"name":        `name = "../escape"`,
		"absolute":    `temp_dir = "/tmp/modrelease"`,
	} {
		_, diags := Parse(hclparse.NewParser(), []byte(src), name+".hcl")
		require.True(t, diags.HasErrors(), name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, diags := Load(hclparse.NewParser(), filepath.Join(t.TempDir(), "missing.hcl"))
	require.True(t, diags.HasErrors())
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.GitHubAPI = "https://ghe.example.com/api/v3"
	cfg.Components[1].AssetSuffix = "-all.jar"

	fpath := filepath.Join(t.TempDir(), "modpack.hcl")
	require.NoError(t, os.WriteFile(fpath, Encode(cfg), 0644))

	got, diags := Load(hclparse.NewParser(), fpath)
	require.False(t, diags.HasErrors(), diags.Error())
	require.Equal(t, cfg, got)
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	release := &manifest.Index{Files: []manifest.File{
		{Downloads: []string{"https://github.com/Moulberry/NotEnoughUpdates/releases/download/v2.1/neu.jar"}},
		{Downloads: []string{"https://cdn.modrinth.com/data/abc/versions/1/mod.jar"}},
		{ComponentID: "Skytils/SkytilsMod"},
	}}
	prerelease := &manifest.Index{Files: []manifest.File{
		{Downloads: []string{"https://github.com/Moulberry/NotEnoughUpdates/releases/download/v2.2/neu.jar"}},
		{Downloads: []string{"https://github.com/hannibal002/SkyHanni/releases/download/0.20/SkyHanni.jar"}},
	}}

	require.Equal(t, []modrelease.Component{
		{ID: "Moulberry/NotEnoughUpdates"},
		{ID: "Skytils/SkytilsMod"},
		{ID: "hannibal002/SkyHanni"},
	}, Discover(release, prerelease))
}
