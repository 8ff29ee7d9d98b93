package interfaces

import "time"

// JobStatus represents the current status of a scheduled job
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	IsRunning bool       `json:"is_running"`
	LastError string     `json:"last_error,omitempty"`
}

// SchedulerService manages cron-based background jobs
type SchedulerService interface {
	// RegisterJob registers a job under the given cron schedule
	RegisterJob(name string, schedule string, handler func() error) error

	// Start begins executing registered jobs
	Start() error

	// Stop halts the scheduler
	Stop() error

	// IsRunning returns true if the scheduler is active
	IsRunning() bool

	// GetAllJobStatuses returns the status of every registered job
	GetAllJobStatuses() map[string]*JobStatus
}
