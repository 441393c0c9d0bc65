// Package pack runs the update and release workflows over all channels.
package pack

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/logger"
	"github.com/tie/modrelease/manifest"
	"github.com/tie/modrelease/resolver"
)

type Resolver interface {
	Resolve(ctx context.Context, c modrelease.Component) (resolver.Resolution, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, entry manifest.File, artifact modrelease.RemoteArtifact) (manifest.File, bool, error)
}

// Updater checks every component for new releases and records changes
// in the channel manifests and changelogs.
type Updater struct {
	Components []modrelease.Component
	Manifests  *manifest.Store
	Changelogs *Changelogs
	Resolver   Resolver
	Reconciler Reconciler

	// Concurrency bounds the components processed at once.
	// Values below 2 process components one after another.
	Concurrency int

	// Now defaults to time.Now.
	Now func() time.Time
}

// Update runs one update pass. The error is non-nil only when the pass
// could not start; failures of single components are reported in the
// summary.
func (u *Updater) Update(ctx context.Context) (*Summary, error) {
	indexes := make(map[modrelease.Channel]*manifest.Index, len(modrelease.Channels))
	for _, ch := range modrelease.Channels {
		m, err := u.Manifests.Load(logger.WithKV(ctx, "channel", ch), ch)
		if err != nil {
			return nil, err
		}
		if n := manifest.Bind(m, u.Components); n > 0 {
			logger.InfoKV(ctx, "Bound legacy entries to components", "channel", ch, "entries", n)
		}
		indexes[ch] = m
	}

	results := u.check(ctx, indexes)

	s := &Summary{Versions: make(map[modrelease.Channel]string)}
	for _, rs := range results {
		s.Results = append(s.Results, rs...)
	}
	u.commit(ctx, indexes, s)
	return s, nil
}

// check reconciles every component against every channel. The indexes
// are only read.
func (u *Updater) check(ctx context.Context, indexes map[modrelease.Channel]*manifest.Index) [][]Result {
	results := make([][]Result, len(u.Components))

	var g errgroup.Group
	limit := u.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, c := range u.Components {
		g.Go(func() error {
			results[i] = u.checkComponent(logger.WithKV(ctx, "component", c.ID), c, indexes)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (u *Updater) checkComponent(ctx context.Context, c modrelease.Component, indexes map[modrelease.Channel]*manifest.Index) []Result {
	results := make([]Result, 0, len(modrelease.Channels))

	res, err := u.Resolver.Resolve(ctx, c)
	if err != nil {
		for _, ch := range modrelease.Channels {
			results = append(results, Result{Component: c, Channel: ch, Err: err})
		}
		return results
	}

	for _, ch := range modrelease.Channels {
		r := Result{Component: c, Channel: ch}

		artifact := res.For(ch)
		if artifact == nil {
			r.Err = modrelease.Wrap(modrelease.ErrNetwork, "resolve "+string(ch), c.ID, modrelease.ErrNoArtifact)
			logger.WarnKV(ctx, "No artifact for channel", "channel", ch)
			results = append(results, r)
			continue
		}

		entry := manifest.File{ComponentID: c.ID}
		if i := manifest.Lookup(indexes[ch], c.ID); i >= 0 {
			entry = indexes[ch].Files[i]
			r.Previous = entry.FileName()
		} else {
			r.Added = true
		}

		r.Entry, r.Changed, r.Err = u.Reconciler.Reconcile(logger.WithKV(ctx, "channel", ch), entry, *artifact)
		if r.Changed {
			r.Line = changelogLine(r.Added, artifact.Name)
		}
		if !r.Changed && r.Err == nil {
			logger.InfoKV(ctx, "No need to update manifest", "channel", ch)
		}
		results = append(results, r)
	}
	return results
}

// commit applies changed entries in component order, then bumps the
// version, saves the manifest and extends the changelog of every
// channel that changed.
func (u *Updater) commit(ctx context.Context, indexes map[modrelease.Channel]*manifest.Index, s *Summary) {
	changes := make(map[modrelease.Channel][]Change)
	for _, r := range s.Results {
		if r.Err != nil || !r.Changed {
			continue
		}
		m := indexes[r.Channel]
		if i := manifest.Lookup(m, r.Component.ID); i >= 0 {
			m.Files[i] = r.Entry
		} else {
			m.Files = append(m.Files, r.Entry)
		}
		changes[r.Channel] = append(changes[r.Channel], Change{Line: r.Line, Previous: r.Previous})
	}

	now := u.now()
	for _, ch := range modrelease.Channels {
		if len(changes[ch]) == 0 {
			continue
		}
		ctx := logger.WithKV(ctx, "channel", ch)
		m := indexes[ch]
		m.VersionID = ch.VersionID(now)

		if err := u.Manifests.Save(ctx, ch, m); err != nil {
			logger.ErrorKV(ctx, "Saving manifest failed", "error", err)
			s.fail(ch, err)
			continue
		}
		if err := u.Changelogs.Append(ctx, ch, changes[ch]); err != nil {
			logger.ErrorKV(ctx, "Writing changelog failed", "error", err)
			s.fail(ch, err)
			continue
		}
		s.Versions[ch] = m.VersionID
	}
}

func (u *Updater) now() time.Time {
	if u.Now == nil {
		return time.Now()
	}
	return u.Now()
}

func changelogLine(added bool, name string) string {
	if added {
		return "Adding " + name
	}
	return "Updating " + name
}
