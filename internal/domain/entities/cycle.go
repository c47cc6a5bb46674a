package entities

import "time"

// Cycle carries the state of one upload-to-dispatch run. It is passed
// explicitly between pipeline stages and cached between the upload and
// dispatch requests of an admin session.
type Cycle struct {
	ID         string              `json:"id"`
	FileName   string              `json:"file_name"`
	IsDaily    bool                `json:"is_daily"`
	UploadedAt time.Time           `json:"uploaded_at"`
	Sheets     []StandardizedSheet `json:"sheets"`
	Skipped    []SkippedSheet      `json:"skipped,omitempty"`
}

// UploadSummary is returned to the operator after an upload.
type UploadSummary struct {
	CycleID  string         `json:"cycle_id"`
	FileName string         `json:"file_name"`
	IsDaily  bool           `json:"is_daily"`
	Sheets   []SheetSummary `json:"sheets"`
	Skipped  []SkippedSheet `json:"skipped,omitempty"`
	Analysis AnalysisResult `json:"analysis"`
	Matches  *MatchResult   `json:"matches,omitempty"`
}

// SheetSummary describes a standardized sheet.
type SheetSummary struct {
	Name       string     `json:"name"`
	Department Department `json:"department,omitempty"`
	Rows       int        `json:"rows"`
}
