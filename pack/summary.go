package pack

import (
	"context"
	"errors"
	"fmt"

	"github.com/tie/modrelease"
	"github.com/tie/modrelease/logger"
	"github.com/tie/modrelease/manifest"
)

// Result is the outcome of checking one component on one channel.
// Channel-wide failures have a zero Component.
type Result struct {
	Component modrelease.Component
	Channel   modrelease.Channel

	Entry   manifest.File
	Changed bool
	// Added is set when the channel had no entry for the component.
	Added bool
	Line  string
	// Previous is the artifact name of the replaced entry.
	Previous string
	Err      error
}

// Summary collects the results of an update pass.
type Summary struct {
	Results []Result
	// Versions holds the new version ID of every channel saved in the pass.
	Versions map[modrelease.Channel]string
}

func (s *Summary) fail(ch modrelease.Channel, err error) {
	s.Results = append(s.Results, Result{Channel: ch, Err: err})
}

// Changed returns the changelog lines recorded for the channel.
func (s *Summary) Changed(ch modrelease.Channel) []string {
	var lines []string
	for _, r := range s.Results {
		if r.Channel == ch && r.Changed && r.Err == nil {
			lines = append(lines, r.Line)
		}
	}
	return lines
}

func (s *Summary) Failed() []Result {
	var failed []Result
	for _, r := range s.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Err joins all failures of the pass.
func (s *Summary) Err() error {
	var errs []error
	for _, r := range s.Failed() {
		target := string(r.Channel)
		if r.Component.ID != "" {
			target = r.Component.ID + " (" + target + ")"
		}
		errs = append(errs, fmt.Errorf("%s: %w", target, r.Err))
	}
	return errors.Join(errs...)
}

// Log writes one line per channel.
func (s *Summary) Log(ctx context.Context) {
	for _, ch := range modrelease.Channels {
		var changed, unchanged, failed int
		for _, r := range s.Results {
			if r.Channel != ch {
				continue
			}
			switch {
			case r.Err != nil:
				failed++
			case r.Changed:
				changed++
			default:
				unchanged++
			}
		}
		kv := []interface{}{"channel", ch, "changed", changed, "unchanged", unchanged, "failed", failed}
		if v, ok := s.Versions[ch]; ok {
			kv = append(kv, "version", v)
		}
		if failed > 0 {
			logger.WarnKV(ctx, "Update finished with failures", kv...)
			continue
		}
		logger.InfoKV(ctx, "Update finished", kv...)
	}
}
