package document

import (
	"errors"
	"fmt"

	"github.com/milk9111/keyanim/animated"
	"github.com/milk9111/keyanim/common"
	"github.com/milk9111/keyanim/interp"
	"github.com/milk9111/keyanim/playback"
)

// Validate reports every problem in doc at once.
func Validate(doc *Document) error {
	if doc == nil {
		return errors.New("document: nil document")
	}
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("document: "+format, args...))
	}

	if _, err := playback.ParseMode(doc.Playback.Mode); err != nil {
		errs = append(errs, err)
	}
	if doc.Playback.FPS < 0 || !common.Finite(doc.Playback.FPS) {
		add("playback fps %v must be positive", doc.Playback.FPS)
	}
	if !common.Finite(doc.Playback.Factor) {
		add("playback factor %v must be finite", doc.Playback.Factor)
	}
	for i, t := range doc.Markers {
		if !common.Finite(t) {
			add("marker %d: time %v is not finite", i, t)
		}
	}
	if len(doc.Labels) > len(doc.Markers) {
		add("%d labels for %d markers", len(doc.Labels), len(doc.Markers))
	}

	seen := make(map[string]bool, len(doc.Tracks))
	for i, ts := range doc.Tracks {
		if ts.Name == "" {
			add("track %d has no name", i)
		} else if seen[ts.Name] {
			errs = append(errs, fmt.Errorf("%w %q", ErrDuplicateTrack, ts.Name))
		}
		seen[ts.Name] = true
		if err := validateTrack(doc, ts); err != nil {
			errs = append(errs, fmt.Errorf("document: track %q: %w", ts.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateTrack(doc *Document, ts TrackSpec) error {
	if !ts.Kind.Known() {
		return fmt.Errorf("%w %q", ErrUnknownKind, string(ts.Kind))
	}
	var errs []error
	if _, err := interp.ParseKind(ts.Interpolation); err != nil {
		errs = append(errs, err)
	}
	if _, err := animated.ParseBoundary(ts.Boundary); err != nil {
		errs = append(errs, err)
	}
	switch ts.Target {
	case "", TargetNode, TargetBody:
		if ts.Target != "" && !ts.Kind.Spatial() {
			errs = append(errs, fmt.Errorf("target %q needs a transform track", ts.Target))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown target %q", ts.Target))
	}
	if ts.Kind.Set() && ts.Size <= 0 {
		errs = append(errs, fmt.Errorf("set size %d must be positive", ts.Size))
	}

	for j, k := range ts.Keys {
		if k.Marker < 0 || k.Marker >= len(doc.Markers) {
			errs = append(errs, fmt.Errorf("key %d: %w (%d of %d)", j, ErrMarkerRange, k.Marker, len(doc.Markers)))
			continue
		}
		if !ts.Kind.Set() {
			if err := ts.Kind.check(k.Value); err != nil {
				errs = append(errs, fmt.Errorf("key %d: %w", j, err))
			}
			continue
		}
		if len(k.Values) > ts.Size {
			errs = append(errs, fmt.Errorf("key %d: %d values for %d slots", j, len(k.Values), ts.Size))
		}
		for s, raw := range k.Values {
			if raw == nil {
				continue
			}
			if err := ts.Kind.check(raw); err != nil {
				errs = append(errs, fmt.Errorf("key %d slot %d: %w", j, s, err))
			}
		}
	}
	return errors.Join(errs...)
}
