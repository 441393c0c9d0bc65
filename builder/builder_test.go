package builder

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/manifest"
)

func testIndex() *manifest.Index {
	return &manifest.Index{
		FormatVersion: 1,
		Game:          "minecraft",
		VersionID:     "2024.3.9",
		Name:          "Hypixel Skyblock",
		Files: []manifest.File{{
			ComponentID: "owner/mod",
			Path:        "mods/mod-1.0.jar",
			Hashes:      map[string]string{"sha1": "a", "sha512": "b"},
			Downloads:   []string{"https://example.com/mod-1.0.jar"},
			FileSize:    10,
		}},
		Dependencies: map[string]string{"minecraft": "1.8.9"},
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	b := New(fs, "temp", "HypixelSkyblock")
	m := testIndex()

	fpath, err := b.Build(context.Background(), modrelease.ChannelRelease, m)
	require.NoError(t, err)
	require.Equal(t, "temp/HypixelSkyblock-2024.3.9.mrpack", fpath)

	data, err := util.ReadFile(fs, fpath)
	require.NoError(t, err)

	z, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, z.File, 1)
	require.Equal(t, manifest.IndexFileName, z.File[0].Name)
	require.Equal(t, zip.Deflate, z.File[0].Method)

	r, err := z.File[0].Open()
	require.NoError(t, err)
	doc, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	require.NotContains(t, string(doc), "componentId")
	got, err := manifest.Decode(doc)
	require.NoError(t, err)
	require.Equal(t, m.Distributable(), got)

	// The manifest passed in keeps its bindings.
	require.Equal(t, "owner/mod", m.Files[0].ComponentID)
}

func TestBuildIsReproducible(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	b := New(fs, "out", "Pack")
	ctx := context.Background()

	first, err := b.Build(ctx, modrelease.ChannelPrerelease, testIndex())
	require.NoError(t, err)
	a, err := util.ReadFile(fs, first)
	require.NoError(t, err)

	second, err := b.Build(ctx, modrelease.ChannelPrerelease, testIndex())
	require.NoError(t, err)
	c, err := util.ReadFile(fs, second)
	require.NoError(t, err)

	require.Equal(t, a, c)
}
