package modrelease

import (
	"fmt"
	"time"
)

// DefaultAssetSuffix selects the downloadable asset of a release.
const DefaultAssetSuffix = ".jar"

// Component is an upstream mod tracked by the modpack.
type Component struct {
	// ID is the GitHub repository in "owner/repo" form.
	ID string

	// AssetSuffix selects which release asset is the mod file.
	// Empty means DefaultAssetSuffix.
	AssetSuffix string
}

// Suffix returns the asset suffix of the component.
func (c Component) Suffix() string {
	if c.AssetSuffix == "" {
		return DefaultAssetSuffix
	}
	return c.AssetSuffix
}

func (c Component) String() string {
	return c.ID
}

// RemoteArtifact is a downloadable release asset.
type RemoteArtifact struct {
	Name string
	Size int64
	URL  string
}

// Channel is one of the two independent release tracks.
type Channel string

const (
	ChannelRelease    Channel = "release"
	ChannelPrerelease Channel = "prerelease"
)

// Channels lists every channel in processing order.
var Channels = []Channel{ChannelRelease, ChannelPrerelease}

// ParseChannel returns the channel with the given name.
func ParseChannel(s string) (Channel, error) {
	switch c := Channel(s); c {
	case ChannelRelease, ChannelPrerelease:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
}

func (c Channel) String() string {
	return string(c)
}

// VersionType is the Modrinth version type published for the channel.
func (c Channel) VersionType() string {
	if c == ChannelPrerelease {
		return "beta"
	}
	return "release"
}

// VersionID returns the manifest version identifier for a run at t.
// Dates are not zero padded, e.g. "2024.3.7" or "prerelease-2024.3.7".
func (c Channel) VersionID(t time.Time) string {
	stamp := fmt.Sprintf("%d.%d.%d", t.Year(), int(t.Month()), t.Day())
	if c == ChannelPrerelease {
		return "prerelease-" + stamp
	}
	return stamp
}
