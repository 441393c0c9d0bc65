package manifest

import (
	"context"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/tie/modrelease"
)

const legacyDocument = `{
  "formatVersion": 1,
  "game": "minecraft",
  "versionId": "2024.3.9",
  "name": "Hypixel Skyblock",
  "summary": "Skyblock mods",
  "files": [
    {
      "path": "mods/NotEnoughUpdates-2.1.jar",
      "hashes": {
        "sha1": "da39a3ee5e6b4b0d3255bfef95601890afd80709",
        "sha512": "cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e"
      },
      "env": {
        "client": "required",
        "server": "unsupported"
      },
      "downloads": [
        "https://github.com/Moulberry/NotEnoughUpdates/releases/download/v2.1/NotEnoughUpdates-2.1.jar"
      ],
      "fileSize": 4096
    },
    {
      "path": "mods/SkytilsMod-1.0.jar",
      "hashes": {
        "sha1": "1",
        "sha512": "2"
      },
      "downloads": [
        "https://github.com/Skytils/SkytilsMod/releases/download/v1.0/SkytilsMod-1.0.jar"
      ],
      "fileSize": 10
    }
  ],
  "dependencies": {
    "forge": "11.15.1.2318-1.8.9",
    "minecraft": "1.8.9"
  }
}
`

var components = []modrelease.Component{
	{ID: "Moulberry/NotEnoughUpdates"},
	{ID: "Skytils/SkytilsMod"},
	{ID: "hannibal002/SkyHanni"},
}

func TestLoadSaveRoundTrip(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "manifests/release.json", []byte(legacyDocument), 0644))

	ctx := context.Background()
	s := NewStore(fs, "manifests")

	m, err := s.Load(ctx, modrelease.ChannelRelease)
	require.NoError(t, err)
	require.Equal(t, "2024.3.9", m.VersionID)
	require.Len(t, m.Files, 2)
	require.Equal(t, &Env{Client: "required", Server: "unsupported"}, m.Files[0].Env)
	require.Nil(t, m.Files[1].Env)
	require.EqualValues(t, 4096, m.Files[0].FileSize)

	require.NoError(t, s.Save(ctx, modrelease.ChannelRelease, m))
	got, err := util.ReadFile(fs, "manifests/release.json")
	require.NoError(t, err)
	require.JSONEq(t, legacyDocument, string(got))

	again, err := s.Load(ctx, modrelease.ChannelRelease)
	require.NoError(t, err)
	require.Equal(t, m, again)

	_, err = fs.Stat("manifests/release.json.tmp")
	require.True(t, os.IsNotExist(err))
}

func TestSaveKeepsOptionalFieldsAsLoaded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "no dependencies",
			doc:  `{"formatVersion":1,"game":"minecraft","versionId":"1","name":"Pack","files":[]}`,
		},
		{
			name: "empty dependencies and summary",
			doc:  `{"formatVersion":1,"game":"minecraft","versionId":"1","name":"Pack","summary":"","files":[],"dependencies":{}}`,
		},
		{
			name: "client only env",
			doc: `{"formatVersion":1,"game":"minecraft","versionId":"1","name":"Pack","files":[
				{"path":"mods/a.jar","hashes":{"sha1":"1","sha512":"2"},"env":{"client":"required"},"downloads":[],"fileSize":1}
			],"dependencies":{"minecraft":"1.8.9"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := memfs.New()
			require.NoError(t, util.WriteFile(fs, "manifests/release.json", []byte(tt.doc), 0644))

			ctx := context.Background()
			s := NewStore(fs, "manifests")

			m, err := s.Load(ctx, modrelease.ChannelRelease)
			require.NoError(t, err)
			require.NoError(t, s.Save(ctx, modrelease.ChannelRelease, m))

			got, err := util.ReadFile(fs, "manifests/release.json")
			require.NoError(t, err)
			require.JSONEq(t, tt.doc, string(got))

			again, err := s.Load(ctx, modrelease.ChannelRelease)
			require.NoError(t, err)
			require.Equal(t, m, again)
		})
	}
}

func TestEncodeNilFiles(t *testing.T) {
	t.Parallel()

	b, err := Encode(&Index{FormatVersion: 1, Game: "minecraft", VersionID: "1", Name: "Pack"})
	require.NoError(t, err)
	require.JSONEq(t, `{"formatVersion":1,"game":"minecraft","versionId":"1","name":"Pack","files":[]}`, string(b))

	_, err = Decode(b)
	require.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	s := NewStore(fs, "manifests")
	ctx := context.Background()

	_, err := s.Load(ctx, modrelease.ChannelPrerelease)
	require.ErrorIs(t, err, modrelease.ErrIO)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.False(t, s.Exists(modrelease.ChannelPrerelease))

	require.NoError(t, util.WriteFile(fs, "manifests/prerelease.json", []byte(`{"formatVersion":`), 0644))
	_, err = s.Load(ctx, modrelease.ChannelPrerelease)
	require.ErrorIs(t, err, modrelease.ErrParse)

	// Well-formed JSON that is not an index.
	require.NoError(t, util.WriteFile(fs, "manifests/prerelease.json",
		[]byte(`{"formatVersion":1,"game":"minecraft","versionId":"1","name":"x","files":[{"path":"mods/a.jar"}]}`), 0644))
	_, err = s.Load(ctx, modrelease.ChannelPrerelease)
	require.ErrorIs(t, err, modrelease.ErrParse)
}

func TestBind(t *testing.T) {
	t.Parallel()

	m, err := Decode([]byte(legacyDocument))
	require.NoError(t, err)

	require.Equal(t, 2, Bind(m, components))
	require.Equal(t, "Moulberry/NotEnoughUpdates", m.Files[0].ComponentID)
	require.Equal(t, "Skytils/SkytilsMod", m.Files[1].ComponentID)

	// Already bound entries are left alone.
	require.Zero(t, Bind(m, components))

	require.Equal(t, 1, Lookup(m, "Skytils/SkytilsMod"))
	require.Equal(t, -1, Lookup(m, "hannibal002/SkyHanni"))

	b, err := Encode(m)
	require.NoError(t, err)
	require.Contains(t, string(b), `"componentId": "Skytils/SkytilsMod"`)
}

func TestDistributableStripsComponentID(t *testing.T) {
	t.Parallel()

	m, err := Decode([]byte(legacyDocument))
	require.NoError(t, err)
	Bind(m, components)

	d := m.Distributable()
	for _, f := range d.Files {
		require.Empty(t, f.ComponentID)
	}
	// The source document keeps its bindings.
	require.Equal(t, "Moulberry/NotEnoughUpdates", m.Files[0].ComponentID)

	d.Files[0].Hashes["sha1"] = "changed"
	require.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", m.Files[0].Hashes["sha1"])
}
