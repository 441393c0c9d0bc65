package config

import (
	"net/url"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/manifest"
)

// Encode renders cfg as a formatted configuration file. Optional
// attributes are written only when set.
func Encode(cfg *Config) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	body.SetAttributeValue("name", cty.StringVal(cfg.Name))
	body.SetAttributeValue("title", cty.StringVal(cfg.Title))
	body.SetAttributeValue("project_id", cty.StringVal(cfg.ProjectID))
	body.SetAttributeValue("game_versions", stringList(cfg.GameVersions))
	body.SetAttributeValue("loaders", stringList(cfg.Loaders))
	body.SetAttributeValue("featured", cty.BoolVal(cfg.Featured))
	body.SetAttributeValue("concurrency", cty.NumberIntVal(int64(cfg.Concurrency)))
	body.AppendNewline()

	body.SetAttributeValue("manifests_dir", cty.StringVal(cfg.ManifestsDir))
	body.SetAttributeValue("temp_dir", cty.StringVal(cfg.TempDir))
	body.SetAttributeValue("user_agent", cty.StringVal(cfg.UserAgent))
	setOptional(body, "github_api", cfg.GitHubAPI)
	setOptional(body, "modrinth_api", cfg.ModrinthAPI)

	if cfg.ModList != (ModList{}) {
		body.AppendNewline()
		ml := body.AppendNewBlock("modlist", nil).Body()
		setOptional(ml, "template", cfg.ModList.Template)
		setOptional(ml, "selector", cfg.ModList.Selector)
		setOptional(ml, "output", cfg.ModList.Output)
	}

	for _, c := range cfg.Components {
		body.AppendNewline()
		b := body.AppendNewBlock("component", []string{c.ID}).Body()
		if c.AssetSuffix != "" && c.AssetSuffix != modrelease.DefaultAssetSuffix {
			b.SetAttributeValue("asset_suffix", cty.StringVal(c.AssetSuffix))
		}
	}

	return hclwrite.Format(f.Bytes())
}

func setOptional(body *hclwrite.Body, name, v string) {
	if v != "" {
		body.SetAttributeValue(name, cty.StringVal(v))
	}
}

func stringList(ss []string) cty.Value {
	if len(ss) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, len(ss))
	for i, s := range ss {
		vals[i] = cty.StringVal(s)
	}
	return cty.ListVal(vals)
}

// Discover derives components from the GitHub download URLs found in
// existing manifests, in order of first appearance.
func Discover(indexes ...*manifest.Index) []modrelease.Component {
	var comps []modrelease.Component
	seen := make(map[string]bool)
	for _, m := range indexes {
		for _, f := range m.Files {
			id := f.ComponentID
			if id == "" && len(f.Downloads) > 0 {
				id = githubRepo(f.Downloads[0])
			}
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			comps = append(comps, modrelease.Component{ID: id})
		}
	}
	return comps
}

// githubRepo extracts "owner/repo" from a release asset URL such as
// https://github.com/owner/repo/releases/download/tag/file.jar.
func githubRepo(rawurl string) string {
	u, err := url.Parse(rawurl)
	if err != nil || u.Host != "github.com" {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[2] != "releases" || parts[3] != "download" {
		return ""
	}
	return parts[0] + "/" + parts[1]
}
