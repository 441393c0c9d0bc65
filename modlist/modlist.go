// Package modlist renders the files of a manifest into an HTML page.
package modlist

import (
	"errors"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/manifest"
)

// DefaultSelector matches the list element of the built-in page.
const DefaultSelector = "#modlist"

// maxTemplateBytes bounds the template read into memory.
const maxTemplateBytes = 1024 * 1024

var ErrNoMatch = errors.New("no element matches selector")

const defaultPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title></title></head>
<body>
<h1></h1>
<ul id="modlist"></ul>
</body>
</html>
`

var headingSel = cascadia.MustCompile("title, h1")

// Render writes the page for m to w. The children of the first element
// of tpl matching selector are replaced with one list item per file,
// linking the file name to its download. Without a template a minimal
// page is rendered.
func Render(w io.Writer, m *manifest.Index, tpl io.Reader, selector string) error {
	builtin := tpl == nil
	if builtin {
		tpl = strings.NewReader(defaultPage)
	}
	if selector == "" {
		selector = DefaultSelector
	}

	sel, err := cascadia.Compile(selector)
	if err != nil {
		return modrelease.Wrap(modrelease.ErrParse, "compile selector", selector, err)
	}
	root, err := html.Parse(io.LimitReader(tpl, maxTemplateBytes))
	if err != nil {
		return modrelease.Wrap(modrelease.ErrParse, "parse template", "", err)
	}

	list := sel.MatchFirst(root)
	if list == nil {
		return modrelease.Wrap(modrelease.ErrParse, "render", selector, ErrNoMatch)
	}
	if list.Type != html.ElementNode {
		return modrelease.Errorf(modrelease.ErrParse, "render", selector, "matched a non-element node")
	}

	if builtin {
		heading := strings.TrimSpace(m.Name + " " + m.VersionID)
		for _, n := range headingSel.MatchAll(root) {
			setText(n, heading)
		}
	}

	removeChildren(list)
	for _, f := range m.Files {
		list.AppendChild(item(f))
	}

	if err := html.Render(w, root); err != nil {
		return modrelease.Wrap(modrelease.ErrIO, "render", "", err)
	}
	return nil
}

func item(f manifest.File) *html.Node {
	li := &html.Node{Type: html.ElementNode, DataAtom: atom.Li, Data: "li"}
	name := &html.Node{Type: html.TextNode, Data: f.FileName()}
	if len(f.Downloads) == 0 {
		li.AppendChild(name)
		return li
	}
	a := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.A,
		Data:     "a",
		Attr:     []html.Attribute{{Key: "href", Val: f.Downloads[0]}},
	}
	a.AppendChild(name)
	li.AppendChild(a)
	return li
}

func setText(n *html.Node, s string) {
	removeChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}
