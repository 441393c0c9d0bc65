// Package publisher uploads packages as new versions of a Modrinth project.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/logger"
	"github.com/tie/modrelease/manifest"
)

const (
	DefaultBaseURL = "https://api.modrinth.com"

	// maxErrorBodyBytes bounds the response excerpt quoted in errors.
	maxErrorBodyBytes = 512
)

type (
	// Project describes the Modrinth project versions are published to.
	Project struct {
		ID string
		// Title prefixes version names.
		Title        string
		GameVersions []string
		Loaders      []string
		Featured     bool
	}

	// Release is one channel version ready to be published.
	Release struct {
		Channel     modrelease.Channel
		VersionID   string
		Changelog   string
		Index       *manifest.Index
		PackagePath string
	}

	// Version is the version created by Modrinth.
	Version struct {
		ID            string `json:"id"`
		VersionNumber string `json:"version_number"`
	}

	versionData struct {
		Name          string       `json:"name"`
		VersionNumber string       `json:"version_number"`
		Changelog     string       `json:"changelog"`
		Dependencies  []dependency `json:"dependencies"`
		GameVersions  []string     `json:"game_versions"`
		VersionType   string       `json:"version_type"`
		Loaders       []string     `json:"loaders"`
		Featured      bool         `json:"featured"`
		ProjectID     string       `json:"project_id"`
		FileParts     []string     `json:"file_parts"`
	}

	dependency struct {
		FileName       string `json:"file_name"`
		DependencyType string `json:"dependency_type"`
	}

	// Publisher creates Modrinth versions.
	Publisher struct {
		Files   billy.Filesystem
		Project Project

		httpClient *http.Client
		baseURL    string
		token      string
		userAgent  string
	}

	Option func(*Publisher)
)

func WithHTTPClient(c *http.Client) Option {
	return func(p *Publisher) {
		p.httpClient = c
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(base string) Option {
	return func(p *Publisher) {
		if base != "" {
			p.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithToken sets the API token sent with every request.
func WithToken(token string) Option {
	return func(p *Publisher) {
		p.token = token
	}
}

func WithUserAgent(ua string) Option {
	return func(p *Publisher) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

func New(fs billy.Filesystem, project Project, opts ...Option) *Publisher {
	p := &Publisher{
		Files:      fs,
		Project:    project,
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		userAgent:  "modrelease",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish uploads the package of r as a new project version. Nothing is
// retried: a failed upload is reported and left to the next run.
func (p *Publisher) Publish(ctx context.Context, r Release) (*Version, error) {
	packageName := path.Base(r.PackagePath)
	ctx = logger.WithKV(ctx, "package", packageName)

	body, contentType, err := p.form(r, packageName)
	if err != nil {
		logger.ErrorKV(ctx, "Preparing upload failed", "error", err)
		return nil, err
	}

	target := p.baseURL + "/v2/version"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, modrelease.Wrap(modrelease.ErrNetwork, "publish", packageName, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", p.userAgent)
	if p.token != "" {
		// Modrinth expects the bare token.
		req.Header.Set("Authorization", p.token)
	}

	logger.InfoKV(ctx, "Uploading package", "version", r.VersionID)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		err = modrelease.Wrap(modrelease.ErrNetwork, "publish", packageName, err)
		logger.ErrorKV(ctx, "Upload failed", "error", err)
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := checkStatus(resp, packageName); err != nil {
		logger.ErrorKV(ctx, "Upload rejected", "status", resp.StatusCode, "error", err)
		return nil, err
	}

	var v Version
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		// The version exists at this point; only the reply is unusable.
		logger.WarnKV(ctx, "Decoding created version failed", "error", err)
		return &Version{VersionNumber: r.VersionID}, nil
	}
	logger.InfoKV(ctx, "Package has been uploaded", "version", v.VersionNumber, "id", v.ID)
	return &v, nil
}

func (p *Publisher) form(r Release, packageName string) (io.Reader, string, error) {
	data := p.versionData(r, packageName)
	meta, err := json.Marshal(data)
	if err != nil {
		return nil, "", modrelease.Wrap(modrelease.ErrParse, "encode version", packageName, err)
	}

	f, err := p.Files.Open(r.PackagePath)
	if err != nil {
		return nil, "", modrelease.Wrap(modrelease.ErrIO, "open", r.PackagePath, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("data", string(meta)); err != nil {
		return nil, "", modrelease.Wrap(modrelease.ErrIO, "write form", packageName, err)
	}
	part, err := mw.CreateFormFile(packageName, packageName)
	if err != nil {
		return nil, "", modrelease.Wrap(modrelease.ErrIO, "write form", packageName, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", modrelease.Wrap(modrelease.ErrIO, "read", r.PackagePath, err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", modrelease.Wrap(modrelease.ErrIO, "write form", packageName, err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func (p *Publisher) versionData(r Release, packageName string) versionData {
	deps := make([]dependency, 0, len(r.Index.Files))
	for _, f := range r.Index.Files {
		deps = append(deps, dependency{
			FileName:       f.FileName(),
			DependencyType: "embedded",
		})
	}
	return versionData{
		Name:          p.Project.Title + " " + r.VersionID,
		VersionNumber: r.VersionID,
		Changelog:     r.Changelog,
		Dependencies:  deps,
		GameVersions:  nonNil(p.Project.GameVersions),
		VersionType:   r.Channel.VersionType(),
		Loaders:       nonNil(p.Project.Loaders),
		Featured:      p.Project.Featured,
		ProjectID:     p.Project.ID,
		FileParts:     []string{packageName},
	}
}

func checkStatus(resp *http.Response, target string) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	kind := modrelease.ErrNetwork
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		kind = modrelease.ErrAuth
	}
	return modrelease.Errorf(kind, "publish", target, "unexpected status %d: %s",
		resp.StatusCode, strings.TrimSpace(string(excerpt)))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
