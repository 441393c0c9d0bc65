package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/logger"
)

const (
	DefaultBaseURL = "https://api.github.com"

	// maxJSONResponseBytes bounds the release listing read into memory.
	maxJSONResponseBytes = 10 << 20
)

type (
	// Release is a GitHub release with its assets, in API order.
	Release struct {
		TagName    string
		Draft      bool
		Prerelease bool
		Assets     []Asset
	}

	// Asset is a file attached to a release.
	Asset struct {
		Name               string
		BrowserDownloadURL string
		Size               int64
	}

	githubRelease struct {
		TagName    string        `json:"tag_name"`
		Draft      bool          `json:"draft"`
		Prerelease bool          `json:"prerelease"`
		Assets     []githubAsset `json:"assets"`
	}

	githubAsset struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
		Size               int64  `json:"size"`
	}

	// RateLimitError is returned when the API quota is exhausted.
	RateLimitError struct {
		Limit   int
		ResetAt time.Time
	}

	// Cache stores release listings between runs.
	// *pogreb.DB satisfies it.
	Cache interface {
		Get(key []byte) ([]byte, error)
		Put(key []byte, value []byte) error
	}

	cachedListing struct {
		ETag string          `json:"etag"`
		Body json.RawMessage `json:"body"`
	}

	// Client lists releases of GitHub repositories.
	Client struct {
		httpClient *http.Client
		baseURL    string
		token      string
		userAgent  string
		cache      Cache
	}

	// ClientOption configures a Client.
	ClientOption func(*Client)
)

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit of %d exceeded, resets at %s",
		e.Limit, e.ResetAt.UTC().Format("15:04 UTC"))
}

func (e *RateLimitError) Unwrap() error {
	return modrelease.ErrNetwork
}

func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *Client) {
		g.httpClient = c
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(base string) ClientOption {
	return func(g *Client) {
		if base != "" {
			g.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithToken authenticates requests, raising the rate limit.
func WithToken(token string) ClientOption {
	return func(g *Client) {
		g.token = token
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(g *Client) {
		if ua != "" {
			g.userAgent = ua
		}
	}
}

// WithCache enables conditional requests backed by c.
func WithCache(c Cache) ClientOption {
	return func(g *Client) {
		g.cache = c
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		userAgent:  "modrelease",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListReleases returns the releases of repo ("owner/repo") in API order,
// newest first.
func (c *Client) ListReleases(ctx context.Context, repo string) ([]Release, error) {
	listURL := fmt.Sprintf("%s/repos/%s/releases", c.baseURL, repo)

	cached := c.cached(ctx, repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, http.NoBody)
	if err != nil {
		return nil, modrelease.Wrap(modrelease.ErrNetwork, "list releases", repo, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if cached != nil && cached.ETag != "" {
		req.Header.Set("If-None-Match", cached.ETag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, modrelease.Wrap(modrelease.ErrNetwork, "list releases", repo, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		logger.DebugKV(ctx, "Release listing not modified", "component", repo)
		return parseReleases(repo, bytes.NewReader(cached.Body))
	}

	if err := checkRateLimit(resp); err != nil {
		return nil, modrelease.Wrap(modrelease.ErrNetwork, "list releases", repo, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, modrelease.Errorf(modrelease.ErrNetwork, "list releases", repo,
			"unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONResponseBytes))
	if err != nil {
		return nil, modrelease.Wrap(modrelease.ErrNetwork, "list releases", repo, err)
	}

	releases, err := parseReleases(repo, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		c.store(ctx, repo, cachedListing{ETag: etag, Body: body})
	}
	return releases, nil
}

func (c *Client) cached(ctx context.Context, repo string) *cachedListing {
	if c.cache == nil {
		return nil
	}
	b, err := c.cache.Get(cacheKey(repo))
	if err != nil {
		logger.WarnKV(ctx, "Reading release cache failed", "component", repo, "error", err)
		return nil
	}
	if b == nil {
		return nil
	}
	var l cachedListing
	if err := json.Unmarshal(b, &l); err != nil {
		logger.WarnKV(ctx, "Ignoring corrupt release cache entry", "component", repo, "error", err)
		return nil
	}
	return &l
}

func (c *Client) store(ctx context.Context, repo string, l cachedListing) {
	if c.cache == nil {
		return
	}
	b, err := json.Marshal(l)
	if err != nil {
		return
	}
	if err := c.cache.Put(cacheKey(repo), b); err != nil {
		logger.WarnKV(ctx, "Writing release cache failed", "component", repo, "error", err)
	}
}

func cacheKey(repo string) []byte {
	return []byte("releases:" + repo)
}

func checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}
	rem, err := strconv.Atoi(remaining)
	if err != nil || rem > 0 {
		return nil
	}
	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))
	reset, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	return &RateLimitError{
		Limit:   limit,
		ResetAt: time.Unix(reset, 0),
	}
}

func parseReleases(repo string, r io.Reader) ([]Release, error) {
	var raw []githubRelease
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, modrelease.Wrap(modrelease.ErrParse, "decode releases", repo, err)
	}
	releases := make([]Release, 0, len(raw))
	for _, gr := range raw {
		assets := make([]Asset, 0, len(gr.Assets))
		for _, ga := range gr.Assets {
			assets = append(assets, Asset(ga))
		}
		releases = append(releases, Release{
			TagName:    gr.TagName,
			Draft:      gr.Draft,
			Prerelease: gr.Prerelease,
			Assets:     assets,
		})
	}
	return releases, nil
}
