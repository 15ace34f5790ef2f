package core

import "time"

// PluginRecord captures a completed plugin or after-handler execution.
type PluginRecord struct {
	TaskID     TaskID
	Name       string
	Kind       string
	Parent     string
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Err        error
	TimedOut   bool
	Panicked   bool
}

// BootStats represents runtime observability state for a boot.
type BootStats struct {
	Name         string
	State        State
	Registered   int64
	Loaded       int64
	Failed       int64
	Skipped      int64
	TimedOut     int64
	Rejected     int64
	Depth        int
	ReadyPending int
	ClosePending int
	Errored      bool
	LastPlugin   string
	LastPluginAt time.Time
}
