package modlist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/manifest"
)

var index = &manifest.Index{
	Name:      "Hypixel Skyblock",
	VersionID: "2024.3.9",
	Files: []manifest.File{
		{Path: "mods/neu-2.1.jar", Downloads: []string{"https://example.com/neu-2.1.jar?a=1&b=2"}},
		{Path: "mods/local.jar"},
	},
}

func TestRenderDefaultPage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, index, nil, ""))

	out := buf.String()
	require.Contains(t, out, "<title>Hypixel Skyblock 2024.3.9</title>")
	require.Contains(t, out, "<h1>Hypixel Skyblock 2024.3.9</h1>")
	require.Contains(t, out, `<ul id="modlist"><li><a href="https://example.com/neu-2.1.jar?a=1&amp;b=2">neu-2.1.jar</a></li><li>local.jar</li></ul>`)
}

func TestRenderTemplate(t *testing.T) {
	t.Parallel()

	tpl := `<html><body><h1>Keep me</h1><div class="mods"><p>placeholder</p></div></body></html>`

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, index, strings.NewReader(tpl), "div.mods"))

	out := buf.String()
	require.Contains(t, out, "<h1>Keep me</h1>")
	require.NotContains(t, out, "placeholder")
	require.Contains(t, out, `<div class="mods"><li><a href=`)
}

func TestRenderErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := Render(&buf, index, strings.NewReader("<html></html>"), "#missing")
	require.ErrorIs(t, err, ErrNoMatch)
	require.ErrorIs(t, err, modrelease.ErrParse)

	err = Render(&buf, index, nil, "[[[")
	require.ErrorIs(t, err, modrelease.ErrParse)
}
