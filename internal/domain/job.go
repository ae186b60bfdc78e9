package domain

import "time"

// RunStatus represents the status of an export run.
// Values include RunStatusRunning, RunStatusCompleted, RunStatusEmpty, and RunStatusFailed.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusEmpty     RunStatus = "empty"
	RunStatusFailed    RunStatus = "failed"
)

// ExportRun is the journal record of one connector invocation.
type ExportRun struct {
	ID            string     `gorm:"type:text;primaryKey" json:"id"`
	ConnectorID   string     `gorm:"type:text;not null;index" json:"connector_id"`
	ConnectorName string     `gorm:"type:text" json:"connector_name"`
	ExportMethod  string     `gorm:"type:text" json:"export_method"`
	Status        RunStatus  `gorm:"type:text;default:running" json:"status"`
	FilesExported int        `gorm:"default:0" json:"files_exported"`
	DataPath      string     `gorm:"type:text" json:"data_path,omitempty"`
	DataStore     string     `gorm:"type:text" json:"data_store,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ErrorLog      string     `json:"error_log,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the database table name for ExportRun.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (ExportRun) TableName() string {
	return "export_runs"
}
