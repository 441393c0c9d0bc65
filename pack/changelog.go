package pack

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/logger"
)

// ChangelogExt is the extension of changelog side-files.
const ChangelogExt = ".version"

// Changelogs keeps the unpublished changelog of each channel as a plain
// text file with one line per change. A present file marks the channel
// as pending publication.
type Changelogs struct {
	Files billy.Filesystem
	Dir   string
}

func NewChangelogs(fs billy.Filesystem, dir string) *Changelogs {
	return &Changelogs{Files: fs, Dir: dir}
}

func (c *Changelogs) Path(ch modrelease.Channel) string {
	return path.Join(c.Dir, string(ch)+ChangelogExt)
}

// Pending returns the channels that have a changelog, in channel order.
func (c *Changelogs) Pending(ctx context.Context) ([]modrelease.Channel, error) {
	var pending []modrelease.Channel
	for _, ch := range modrelease.Channels {
		_, err := c.Files.Stat(c.Path(ch))
		switch {
		case err == nil:
			pending = append(pending, ch)
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, modrelease.Wrap(modrelease.ErrIO, "stat", c.Path(ch), err)
		}
	}
	logger.DebugKV(ctx, "Pending changelogs", "channels", pending)
	return pending, nil
}

// Read returns the changelog of the channel.
func (c *Changelogs) Read(ctx context.Context, ch modrelease.Channel) (string, error) {
	b, err := util.ReadFile(c.Files, c.Path(ch))
	if err != nil {
		return "", modrelease.Wrap(modrelease.ErrIO, "read changelog", c.Path(ch), err)
	}
	return string(b), nil
}

// Change is one changelog line. Previous names the artifact the change
// replaces in the manifest and is empty for additions.
type Change struct {
	Line     string
	Previous string
}

// Append adds changes to the changelog of the channel, creating it if
// needed. Lines of an earlier unpublished run are kept, except that a
// pending line about the Previous artifact of a change is rewritten to
// name the new artifact. The verb of the pending line is kept, so a
// component added and updated before publication is still announced as
// added.
func (c *Changelogs) Append(ctx context.Context, ch modrelease.Channel, changes []Change) error {
	if len(changes) == 0 {
		return nil
	}
	fpath := c.Path(ch)

	var all []string
	b, err := util.ReadFile(c.Files, fpath)
	switch {
	case err == nil:
		if s := strings.TrimRight(string(b), "\n"); s != "" {
			all = strings.Split(s, "\n")
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return modrelease.Wrap(modrelease.ErrIO, "read changelog", fpath, err)
	}

	replaced := 0
	for _, change := range changes {
		if i := pendingLine(all, change.Previous); i >= 0 {
			verb, _, _ := strings.Cut(all[i], " ")
			_, name, _ := strings.Cut(change.Line, " ")
			all[i] = verb + " " + name
			replaced++
			continue
		}
		all = append(all, change.Line)
	}

	if err := c.Files.MkdirAll(c.Dir, 0755); err != nil {
		return modrelease.Wrap(modrelease.ErrIO, "mkdir", c.Dir, err)
	}
	if err := util.WriteFile(c.Files, fpath, []byte(strings.Join(all, "\n")), 0644); err != nil {
		return modrelease.Wrap(modrelease.ErrIO, "write changelog", fpath, err)
	}
	logger.InfoKV(ctx, "Changelog updated", "path", fpath, "lines", len(changes), "replaced", replaced)
	return nil
}

// pendingLine returns the index of the line naming artifact, or -1.
func pendingLine(lines []string, artifact string) int {
	if artifact == "" {
		return -1
	}
	for i, line := range lines {
		if _, name, ok := strings.Cut(line, " "); ok && name == artifact {
			return i
		}
	}
	return -1
}

// Remove deletes the changelog of the channel. A missing file is not
// an error.
func (c *Changelogs) Remove(ctx context.Context, ch modrelease.Channel) error {
	err := c.Files.Remove(c.Path(ch))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return modrelease.Wrap(modrelease.ErrIO, "remove changelog", c.Path(ch), err)
	}
	logger.DebugKV(ctx, "Changelog removed", "path", c.Path(ch))
	return nil
}
