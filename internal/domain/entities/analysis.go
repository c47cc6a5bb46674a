package entities

import "time"

// SlotCount holds morning and afternoon patient counts.
type SlotCount struct {
	Morning   int `json:"morning"`
	Afternoon int `json:"afternoon"`
}

// AnalysisResult maps a department to its time-slot counts.
type AnalysisResult map[Department]SlotCount

// AnalysisRecord is the persisted analysis of the latest upload.
type AnalysisRecord struct {
	Result       AnalysisResult `json:"result"`
	FileName     string         `json:"file_name"`
	AnalysisDate time.Time      `json:"analysis_date"`
}
