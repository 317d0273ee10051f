package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/fiducial/internal/pose"
)

// ErrSessionNotFound is returned when a session ID has no row.
var ErrSessionNotFound = errors.New("session not found")

// Session is one run of the pose estimator.
type Session struct {
	ID          string
	StartedAt   time.Time
	Dictionary  string
	MarkerSize  float64
	Units       string
	Calibration string
}

// PoseRecord is one logged estimate.
type PoseRecord struct {
	SessionID  string
	Frame      int64
	MarkerID   int
	RVec       [3]float64
	TVec       [3]float64
	Distance   float64
	RecordedAt time.Time
}

// MarkerStats summarises the distances logged for one marker in a session.
type MarkerStats struct {
	MarkerID     int
	Count        int
	MinDistance  float64
	MaxDistance  float64
	MeanDistance float64
}

// StartSession inserts s, assigning a random UUID when s.ID is empty.
func (db *DB) StartSession(ctx context.Context, s Session) (Session, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	} else if _, err := uuid.Parse(s.ID); err != nil {
		return Session{}, fmt.Errorf("invalid session id %q: %w", s.ID, err)
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, started_unix_ns, dictionary, marker_size, units, calibration)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.StartedAt.UnixNano(), s.Dictionary, s.MarkerSize, s.Units, s.Calibration,
	)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// Session loads one session by ID.
func (db *DB) Session(ctx context.Context, id string) (Session, error) {
	var s Session
	var started int64
	err := db.QueryRowContext(ctx,
		`SELECT session_id, started_unix_ns, dictionary, marker_size, units, calibration
		 FROM sessions WHERE session_id = ?`, id,
	).Scan(&s.ID, &started, &s.Dictionary, &s.MarkerSize, &s.Units, &s.Calibration)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return Session{}, err
	}
	s.StartedAt = time.Unix(0, started)
	return s, nil
}

// Sessions lists every session, oldest first.
func (db *DB) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT session_id, started_unix_ns, dictionary, marker_size, units, calibration
		 FROM sessions ORDER BY started_unix_ns, session_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var started int64
		if err := rows.Scan(&s.ID, &started, &s.Dictionary, &s.MarkerSize, &s.Units, &s.Calibration); err != nil {
			return nil, err
		}
		s.StartedAt = time.Unix(0, started)
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecordPoses logs the estimates of one frame in a single transaction.
func (db *DB) RecordPoses(ctx context.Context, sessionID string, frame int64, at time.Time, estimates []pose.Estimate) error {
	if len(estimates) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pose_estimates (
			session_id, frame, marker_id,
			rvec_x, rvec_y, rvec_z, tvec_x, tvec_y, tvec_z,
			distance, recorded_unix_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range estimates {
		_, err := stmt.ExecContext(ctx,
			sessionID, frame, e.MarkerID,
			e.RVec[0], e.RVec[1], e.RVec[2], e.TVec[0], e.TVec[1], e.TVec[2],
			e.Distance, at.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert marker %d: %w", e.MarkerID, err)
		}
	}
	return tx.Commit()
}

// Poses returns every estimate of a session in frame then insertion order.
func (db *DB) Poses(ctx context.Context, sessionID string) ([]PoseRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT session_id, frame, marker_id,
			rvec_x, rvec_y, rvec_z, tvec_x, tvec_y, tvec_z,
			distance, recorded_unix_ns
		 FROM pose_estimates WHERE session_id = ?
		 ORDER BY frame, estimate_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PoseRecord
	for rows.Next() {
		var r PoseRecord
		var recorded int64
		if err := rows.Scan(&r.SessionID, &r.Frame, &r.MarkerID,
			&r.RVec[0], &r.RVec[1], &r.RVec[2], &r.TVec[0], &r.TVec[1], &r.TVec[2],
			&r.Distance, &recorded); err != nil {
			return nil, err
		}
		r.RecordedAt = time.Unix(0, recorded)
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkerSummary aggregates logged distances per marker, ordered by ID.
func (db *DB) MarkerSummary(ctx context.Context, sessionID string) ([]MarkerStats, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT marker_id, COUNT(*), MIN(distance), MAX(distance), AVG(distance)
		 FROM pose_estimates WHERE session_id = ?
		 GROUP BY marker_id ORDER BY marker_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MarkerStats
	for rows.Next() {
		var s MarkerStats
		if err := rows.Scan(&s.MarkerID, &s.Count, &s.MinDistance, &s.MaxDistance, &s.MeanDistance); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
