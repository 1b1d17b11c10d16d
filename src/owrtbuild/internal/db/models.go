package db

import "time"

// RunStatus describes the lifecycle state of a build run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// BuildRun is one invocation of the build pipeline
type BuildRun struct {
	ID            string     `json:"id"`
	Profile       string     `json:"profile"`
	Target        string     `json:"target"`
	Subtarget     string     `json:"subtarget"`
	Version       string     `json:"version"`
	Status        RunStatus  `json:"status"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	ArtifactCount int        `json:"artifact_count"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Duration returns how long the run took, or how long it has been running
func (r *BuildRun) Duration() time.Duration {
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}
