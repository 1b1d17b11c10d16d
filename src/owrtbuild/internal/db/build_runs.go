package db

import (
	"database/sql"
	"time"

	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
)

// BuildRunRepository persists build runs
type BuildRunRepository struct {
	db *sql.DB
}

// NewBuildRunRepository creates a repository backed by the given database
func NewBuildRunRepository(database *Database) *BuildRunRepository {
	return &BuildRunRepository{db: database.DB()}
}

// Create records the start of a build run
func (r *BuildRunRepository) Create(run *BuildRun) error {
	_, err := r.db.Exec(`
		INSERT INTO build_runs (id, profile, target, subtarget, version, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Profile, run.Target, run.Subtarget, run.Version, run.Status, run.StartedAt)
	if err != nil {
		return owrterrors.ErrDatabaseQuery.
			WithMessage("failed to record build run").WithCause(err)
	}
	return nil
}

// MarkCompleted finalizes a successful run with its artifact count
func (r *BuildRunRepository) MarkCompleted(id string, artifactCount int) error {
	_, err := r.db.Exec(`
		UPDATE build_runs
		SET status = ?, artifact_count = ?, completed_at = ?
		WHERE id = ?
	`, RunStatusCompleted, artifactCount, time.Now().UTC(), id)
	if err != nil {
		return owrterrors.ErrDatabaseQuery.
			WithMessage("failed to complete build run").WithCause(err)
	}
	return nil
}

// MarkFailed finalizes a failed run with its error message
func (r *BuildRunRepository) MarkFailed(id string, message string) error {
	_, err := r.db.Exec(`
		UPDATE build_runs
		SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`, RunStatusFailed, message, time.Now().UTC(), id)
	if err != nil {
		return owrterrors.ErrDatabaseQuery.
			WithMessage("failed to mark build run failed").WithCause(err)
	}
	return nil
}

// ListRecent returns the newest runs first, up to limit
func (r *BuildRunRepository) ListRecent(limit int) ([]*BuildRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, profile, target, subtarget, version, status,
		       error_message, artifact_count, started_at, completed_at
		FROM build_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, owrterrors.ErrDatabaseQuery.
			WithMessage("failed to list build runs").WithCause(err)
	}
	defer rows.Close()

	var runs []*BuildRun
	for rows.Next() {
		run := &BuildRun{}
		var completedAt sql.NullTime
		err := rows.Scan(&run.ID, &run.Profile, &run.Target, &run.Subtarget,
			&run.Version, &run.Status, &run.ErrorMessage, &run.ArtifactCount,
			&run.StartedAt, &completedAt)
		if err != nil {
			return nil, owrterrors.ErrDatabaseQuery.
				WithMessage("failed to scan build run").WithCause(err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, owrterrors.ErrDatabaseQuery.
			WithMessage("failed to iterate build runs").WithCause(err)
	}

	return runs, nil
}

// Get returns one run by ID, or nil when not found
func (r *BuildRunRepository) Get(id string) (*BuildRun, error) {
	run := &BuildRun{}
	var completedAt sql.NullTime
	err := r.db.QueryRow(`
		SELECT id, profile, target, subtarget, version, status,
		       error_message, artifact_count, started_at, completed_at
		FROM build_runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Profile, &run.Target, &run.Subtarget,
		&run.Version, &run.Status, &run.ErrorMessage, &run.ArtifactCount,
		&run.StartedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, owrterrors.ErrDatabaseQuery.
			WithMessage("failed to load build run").WithCause(err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return run, nil
}
