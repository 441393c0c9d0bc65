// Package config loads the HCL configuration of a modpack.
package config

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/tie/modrelease"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "modpack.hcl"

// DefaultSelector locates the mod list element in page templates.
const DefaultSelector = "#modlist"

type Config struct {
	// Name prefixes package file names.
	Name string
	// Title prefixes published version names.
	Title        string
	ProjectID    string
	GameVersions []string
	Loaders      []string
	Featured     bool
	Concurrency  int

	ManifestsDir string
	TempDir      string
	UserAgent    string
	GitHubAPI    string
	ModrinthAPI  string

	ModList    ModList
	Components []modrelease.Component
}

// ModList configures the generated mod list page.
type ModList struct {
	Template string
	Selector string
	Output   string
}

// Default returns the configuration of the Hypixel Skyblock modpack.
func Default() *Config {
	return &Config{
		Name:         "HypixelSkyblock",
		Title:        "Hypixel Skyblock Modpack",
		ProjectID:    "3trQWSoU",
		GameVersions: []string{"1.8.9"},
		Loaders:      []string{"forge"},
		Featured:     true,
		Concurrency:  1,
		ManifestsDir: "manifests",
		TempDir:      "temp",
		UserAgent:    "McRadane/hypixel-skyblock-modpack/1.0.0",
		ModList: ModList{
			Selector: DefaultSelector,
			Output:   "modlist.html",
		},
		Components: []modrelease.Component{
			{ID: "Moulberry/NotEnoughUpdates"},
			{ID: "Skytils/SkytilsMod"},
			{ID: "hannibal002/SkyHanni"},
			{ID: "BiscuitDevelopment/SkyblockAddons"},
			{ID: "Quantizr/DungeonRoomsMod"},
		},
	}
}

// Load parses the file at fpath. The parser keeps the sources for
// rendering the returned diagnostics.
func Load(p *hclparse.Parser, fpath string) (*Config, hcl.Diagnostics) {
	file, diags := p.ParseHCLFile(fpath)
	if diags.HasErrors() {
		return nil, diags
	}
	cfg, decodeDiags := decode(file)
	return cfg, append(diags, decodeDiags...)
}

// Parse is like Load but reads the configuration from src.
func Parse(p *hclparse.Parser, src []byte, fpath string) (*Config, hcl.Diagnostics) {
	file, diags := p.ParseHCL(src, fpath)
	if diags.HasErrors() {
		return nil, diags
	}
	cfg, decodeDiags := decode(file)
	return cfg, append(diags, decodeDiags...)
}

func decode(file *hcl.File) (*Config, hcl.Diagnostics) {
	var spec fileSpec
	diags := gohcl.DecodeBody(file.Body, nil, &spec)
	if diags.HasErrors() {
		return nil, diags
	}

	cfg := Default()
	setString(&cfg.Name, spec.Name)
	setString(&cfg.Title, spec.Title)
	setString(&cfg.ProjectID, spec.ProjectID)
	setString(&cfg.ManifestsDir, spec.ManifestsDir)
	setString(&cfg.TempDir, spec.TempDir)
	setString(&cfg.UserAgent, spec.UserAgent)
	setString(&cfg.GitHubAPI, spec.GitHubAPI)
	setString(&cfg.ModrinthAPI, spec.ModrinthAPI)
	if spec.GameVersions != nil {
		cfg.GameVersions = spec.GameVersions
	}
	if spec.Loaders != nil {
		cfg.Loaders = spec.Loaders
	}
	if spec.Featured != nil {
		cfg.Featured = *spec.Featured
	}
	if spec.Concurrency != 0 {
		cfg.Concurrency = spec.Concurrency
	}
	if spec.ModList != nil {
		setString(&cfg.ModList.Template, spec.ModList.Template)
		setString(&cfg.ModList.Selector, spec.ModList.Selector)
		setString(&cfg.ModList.Output, spec.ModList.Output)
	}

	if spec.Components != nil {
		cfg.Components = make([]modrelease.Component, 0, len(spec.Components))
	}
	seen := make(map[string]bool, len(spec.Components))
	for _, c := range spec.Components {
		if err := CheckComponentID(c.ID); err != nil {
			diags = append(diags, errorDiag(file, "Invalid component", err.Error()))
			continue
		}
		if seen[c.ID] {
			diags = append(diags, errorDiag(file, "Duplicate component",
				fmt.Sprintf("Component %q is declared more than once.", c.ID)))
			continue
		}
		seen[c.ID] = true
		cfg.Components = append(cfg.Components, modrelease.Component{
			ID:          c.ID,
			AssetSuffix: c.AssetSuffix,
		})
	}

	if cfg.Concurrency < 1 {
		diags = append(diags, errorDiag(file, "Invalid concurrency",
			fmt.Sprintf("Concurrency must be at least 1, got %d.", cfg.Concurrency)))
	}
	for attr, dir := range map[string]string{"manifests_dir": cfg.ManifestsDir, "temp_dir": cfg.TempDir} {
		if path.IsAbs(dir) || filepath.IsAbs(dir) {
			diags = append(diags, errorDiag(file, "Invalid directory",
				fmt.Sprintf("The %s %q must be relative to the configuration file.", attr, dir)))
		}
	}
	if strings.ContainsAny(cfg.Name, `/\`) {
		diags = append(diags, errorDiag(file, "Invalid name",
			fmt.Sprintf("Name %q must not contain path separators.", cfg.Name)))
	}
	return cfg, diags
}

// CheckComponentID reports whether id has the "owner/repo" form.
func CheckComponentID(id string) error {
	owner, repo, ok := strings.Cut(id, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return fmt.Errorf("component %q is not in owner/repo form", id)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func errorDiag(file *hcl.File, summary, detail string) *hcl.Diagnostic {
	rng := file.Body.MissingItemRange()
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  &rng,
	}
}
