// Package resolver picks the newest stable and pre-release mod files
// from the GitHub releases of a component.
package resolver

import (
	"context"
	"strings"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/logger"
)

// Lister lists releases of a repository, newest first.
type Lister interface {
	ListReleases(ctx context.Context, repo string) ([]Release, error)
}

// Resolution holds the newest artifact for each channel.
// A nil field means no release offers a matching asset.
type Resolution struct {
	Stable     *modrelease.RemoteArtifact
	Prerelease *modrelease.RemoteArtifact
}

// For returns the artifact resolved for the channel.
func (r Resolution) For(c modrelease.Channel) *modrelease.RemoteArtifact {
	if c == modrelease.ChannelPrerelease {
		return r.Prerelease
	}
	return r.Stable
}

type Resolver struct {
	Releases Lister
}

func New(l Lister) *Resolver {
	return &Resolver{Releases: l}
}

// Resolve lists the releases of the component and selects the artifacts.
func (r *Resolver) Resolve(ctx context.Context, c modrelease.Component) (Resolution, error) {
	releases, err := r.Releases.ListReleases(ctx, c.ID)
	if err != nil {
		logger.ErrorKV(ctx, "Listing releases failed", "component", c.ID, "error", err)
		return Resolution{}, err
	}
	res := Select(releases, c.Suffix())
	logger.DebugKV(ctx, "Resolved releases", "component", c.ID,
		"stable", artifactName(res.Stable), "prerelease", artifactName(res.Prerelease))
	return res, nil
}

// Select walks releases in the given order, skipping drafts. The first
// non-prerelease release provides the stable artifact and the first
// release of any kind provides the pre-release artifact. When a release
// carries several matching assets the last one listed wins, so the
// result depends on the asset order returned by the API.
func Select(releases []Release, suffix string) Resolution {
	var res Resolution
	for _, rel := range releases {
		if rel.Draft {
			continue
		}
		if !rel.Prerelease && res.Stable == nil {
			res.Stable = lastAsset(rel.Assets, suffix)
		}
		if res.Prerelease == nil {
			res.Prerelease = lastAsset(rel.Assets, suffix)
		}
		if res.Stable != nil && res.Prerelease != nil {
			break
		}
	}
	return res
}

func lastAsset(assets []Asset, suffix string) *modrelease.RemoteArtifact {
	var found *modrelease.RemoteArtifact
	for _, a := range assets {
		if !strings.HasSuffix(a.Name, suffix) {
			continue
		}
		found = &modrelease.RemoteArtifact{
			Name: a.Name,
			Size: a.Size,
			URL:  a.BrowserDownloadURL,
		}
	}
	return found
}

func artifactName(a *modrelease.RemoteArtifact) string {
	if a == nil {
		return ""
	}
	return a.Name
}
