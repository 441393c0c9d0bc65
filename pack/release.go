package pack

import (
	"context"
	"errors"
	"fmt"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/logger"
	"github.com/tie/modrelease/manifest"
	"github.com/tie/modrelease/publisher"
)

type Builder interface {
	Build(ctx context.Context, c modrelease.Channel, m *manifest.Index) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, r publisher.Release) (*publisher.Version, error)
}

// Releaser publishes every channel with a pending changelog.
type Releaser struct {
	Manifests  *manifest.Store
	Changelogs *Changelogs
	Builder    Builder
	Publisher  Publisher
}

// Publication is the outcome of releasing one channel.
type Publication struct {
	Channel   modrelease.Channel
	VersionID string
	Package   string
	Version   *publisher.Version
	Err       error
}

// Release builds and publishes a package for each pending channel. The
// changelog of a channel is removed only once its package was accepted,
// so a failed channel is retried by the next run. The returned error
// joins the failures of all channels.
func (r *Releaser) Release(ctx context.Context) ([]Publication, error) {
	pending, err := r.Changelogs.Pending(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		logger.Info(ctx, "Nothing to release")
		return nil, nil
	}

	var (
		pubs []Publication
		errs []error
	)
	for _, ch := range pending {
		p := r.release(logger.WithKV(ctx, "channel", ch), ch)
		if p.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch, p.Err))
		}
		pubs = append(pubs, p)
	}
	return pubs, errors.Join(errs...)
}

func (r *Releaser) release(ctx context.Context, ch modrelease.Channel) Publication {
	p := Publication{Channel: ch}

	changelog, err := r.Changelogs.Read(ctx, ch)
	if err != nil {
		p.Err = err
		return p
	}
	m, err := r.Manifests.Load(ctx, ch)
	if err != nil {
		p.Err = err
		return p
	}
	p.VersionID = m.VersionID

	logger.InfoKV(ctx, "Preparing package", "version", m.VersionID)
	p.Package, err = r.Builder.Build(ctx, ch, m)
	if err != nil {
		p.Err = err
		return p
	}

	p.Version, err = r.Publisher.Publish(ctx, publisher.Release{
		Channel:     ch,
		VersionID:   m.VersionID,
		Changelog:   changelog,
		Index:       m,
		PackagePath: p.Package,
	})
	if err != nil {
		p.Err = err
		return p
	}

	if err := r.Changelogs.Remove(ctx, ch); err != nil {
		logger.ErrorKV(ctx, "Removing published changelog failed", "error", err)
		p.Err = err
	}
	return p
}
