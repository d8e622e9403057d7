package model

import "time"

// RunStatus represents the state of a pipeline invocation in the ledger.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID         string    `json:"id"`
	Status     RunStatus `json:"status"`
	Stats      *RunStats `json:"stats,omitempty"`
	ReportPath string    `json:"report_path,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
