package internal

import "time"

// Run status values recorded in the journal.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one proofreading invocation as recorded in the run journal.
type Run struct {
	ID             string    `json:"id"`
	InputFile      string    `json:"input_file"`
	OutputFile     string    `json:"output_file"`
	Service        string    `json:"service"`
	Model          string    `json:"model"`
	Status         string    `json:"status"`
	UnitCount      int       `json:"unit_count"`
	CorrectedCount int       `json:"corrected_count"`
	FailedCount    int       `json:"failed_count"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// UnitRecord describes one unit's outcome within a run. Distance is the
// Levenshtein edit distance between the original and accepted text, zero
// when nothing changed.
type UnitRecord struct {
	Index    int    `json:"index"`
	Kind     string `json:"kind"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	State    string `json:"state"`
	Attempts int    `json:"attempts"`
	Changed  bool   `json:"changed"`
	Distance int    `json:"distance"`
	Preview  string `json:"preview"`
	Error    string `json:"error,omitempty"`
}
