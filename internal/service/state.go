package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/hdfsconnector/internal/domain"
	"github.com/timmy/hdfsconnector/internal/logger"
	"github.com/timmy/hdfsconnector/internal/storage"
)

// StateFileName is the per-run archive of the persisted state.
const StateFileName = "state.json"

// StateTracker loads and persists the export watermark.
// It holds no run state; callers thread ExportState values through explicitly.
type StateTracker struct {
	location string
	blobs    *storage.Blobs
	now      func() time.Time
	logger   *logger.Logger
}

// NewStateTracker creates a new StateTracker.
// Parameters:
//   - location: URI of the latest-state object; empty disables state.
//   - blobs: object store holding the state.
//   - log: fallback logger.
// Returns:
//   - *StateTracker: tracker bound to location.
func NewStateTracker(location string, blobs *storage.Blobs, log *logger.Logger) *StateTracker {
	return &StateTracker{location: location, blobs: blobs, now: time.Now, logger: orDiscard(log)}
}

// Location returns the latest-state URI.
func (t *StateTracker) Location() string {
	return t.location
}

// Load returns the last persisted state, or a zero state when the location is
// unset or holds no object.
func (t *StateTracker) Load(ctx context.Context) (domain.ExportState, error) {
	log := logger.Or(ctx, t.logger).WithComponent("state")
	if t.location == "" {
		log.Warn("No state location configured")
		return domain.ExportState{}, nil
	}

	var state domain.ExportState
	if err := t.blobs.ReadJSON(ctx, t.location, &state); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			log.WithField("location", t.location).Warn("No state loaded")
			return domain.ExportState{}, nil
		}
		return domain.ExportState{}, fmt.Errorf("failed to load state: %w", err)
	}

	log.WithFields(logger.Fields{
		"location":       t.location,
		"files_exported": state.FilesExported,
	}).Info("State loaded")
	return state, nil
}

// Persist writes a new state derived from prev to the latest-state location
// and to runDir/state.json, using the same bytes for both.
// The watermark never moves backwards and the state timestamp never decreases.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - prev: state returned by Load for this run.
//   - lastModified: newest modification time of the exported files; nil keeps prev's.
//   - filesExported: number of files copied in this run.
//   - runDir: run working directory receiving the archive copy.
// Returns:
//   - domain.ExportState: the state written, or prev when no location is configured.
//   - error: non-nil if either write fails.
func (t *StateTracker) Persist(ctx context.Context, prev domain.ExportState, lastModified *time.Time, filesExported int, runDir string) (domain.ExportState, error) {
	if t.location == "" {
		return prev, nil
	}

	next := NextState(prev, t.now(), lastModified, filesExported)
	data, err := json.MarshalIndent(next, "", "    ")
	if err != nil {
		return prev, fmt.Errorf("failed to encode state: %w", err)
	}

	archive := storage.Join(runDir, StateFileName)
	for _, uri := range []string{t.location, archive} {
		if err := t.blobs.WriteString(ctx, uri, string(data), storage.ContentTypeJSON); err != nil {
			return prev, fmt.Errorf("failed to write state to %s: %w", uri, err)
		}
	}

	logger.Or(ctx, t.logger).WithComponent("state").WithFields(logger.Fields{
		"location":       t.location,
		"archive":        archive,
		"files_exported": next.FilesExported,
	}).Info("State saved")
	return next, nil
}

// NextState computes the state following prev.
func NextState(prev domain.ExportState, now time.Time, lastModified *time.Time, filesExported int) domain.ExportState {
	next := domain.ExportState{
		StateTimestamp: maxTime(prev.StateTimestamp, &now),
		LastModified:   maxTime(prev.LastModified, lastModified),
		FilesExported:  filesExported,
	}
	return next
}

func maxTime(a, b *time.Time) *time.Time {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		t := b.UTC()
		return &t
	case b == nil || !b.After(*a):
		t := a.UTC()
		return &t
	default:
		t := b.UTC()
		return &t
	}
}
