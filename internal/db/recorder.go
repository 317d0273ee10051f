package db

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/fiducial/internal/monitoring"
	"github.com/banshee-data/fiducial/internal/pose"
)

// Recorder logs the estimates of one pose session.
type Recorder struct {
	db      *DB
	session Session
}

// OpenRecorder opens or creates the log at path and starts session s.
func OpenRecorder(ctx context.Context, path string, s Session) (*Recorder, error) {
	database, err := NewDB(path)
	if err != nil {
		return nil, err
	}
	rec, err := NewRecorder(ctx, database, s)
	if err != nil {
		database.Close()
		return nil, err
	}
	monitoring.Logf("recording poses to %s, session %s", path, rec.session.ID)
	return rec, nil
}

// NewRecorder starts session s on an open database. The Recorder owns db.
func NewRecorder(ctx context.Context, db *DB, s Session) (*Recorder, error) {
	s, err := db.StartSession(ctx, s)
	if err != nil {
		return nil, err
	}
	return &Recorder{db: db, session: s}, nil
}

// Session returns the session being recorded.
func (r *Recorder) Session() Session {
	return r.session
}

// Record logs the estimates of one frame.
func (r *Recorder) Record(ctx context.Context, frame int64, at time.Time, estimates []pose.Estimate) error {
	return r.db.RecordPoses(ctx, r.session.ID, frame, at, estimates)
}

// Close logs a per-marker summary of the session and closes the database.
// It runs after the capture context is cancelled, so it takes none.
func (r *Recorder) Close() error {
	stats, err := r.db.MarkerSummary(context.Background(), r.session.ID)
	if err != nil {
		monitoring.Logf("failed to summarise session %s: %v", r.session.ID, err)
	}
	for _, s := range stats {
		monitoring.Logf("marker %d: %d estimates, distance %.2f..%.2f (mean %.2f) %s",
			s.MarkerID, s.Count, s.MinDistance, s.MaxDistance, s.MeanDistance, r.session.Units)
	}
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close pose log: %w", err)
	}
	return nil
}
