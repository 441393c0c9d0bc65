package config

// fileSpec is the decoded form of a configuration file. Optional
// attributes left out of the file keep their zero value and are filled
// from Default.
type fileSpec struct {
	Name         string   `hcl:"name,optional"`
	Title        string   `hcl:"title,optional"`
	ProjectID    string   `hcl:"project_id,optional"`
	GameVersions []string `hcl:"game_versions,optional"`
	Loaders      []string `hcl:"loaders,optional"`
	Featured     *bool    `hcl:"featured,optional"`
	Concurrency  int      `hcl:"concurrency,optional"`

	ManifestsDir string `hcl:"manifests_dir,optional"`
	TempDir      string `hcl:"temp_dir,optional"`
	UserAgent    string `hcl:"user_agent,optional"`
	GitHubAPI    string `hcl:"github_api,optional"`
	ModrinthAPI  string `hcl:"modrinth_api,optional"`

	ModList    *modListSpec    `hcl:"modlist,block"`
	Components []componentSpec `hcl:"component,block"`
}

type modListSpec struct {
	Template string `hcl:"template,optional"`
	Selector string `hcl:"selector,optional"`
	Output   string `hcl:"output,optional"`
}

type componentSpec struct {
	ID          string `hcl:"id,label"`
	AssetSuffix string `hcl:"asset_suffix,optional"`
}
