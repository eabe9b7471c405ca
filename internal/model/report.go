package model

import "time"

// Report status values.
const (
	ReportStatusPending  = "pending"
	ReportStatusResolved = "resolved"
)

// ReportReasons are the accepted report reason values.
var ReportReasons = map[string]bool{
	"sexual_content":    true,
	"hateful_content":   true,
	"harmful_acts":      true,
	"spam":              true,
	"violent_content":   true,
	"copyright":         true,
	"misinformation":    true,
	"other":             true,
}

// Report records an abuse report: one per (video, reporting profile) pair.
type Report struct {
	ID         string    `json:"id"`
	VideoID    string    `json:"videoId"`
	ReporterID string    `json:"reporterId"`
	Reason     string    `json:"reason"`
	Details    string    `json:"details,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreateReportRequest is the API request body for submitting a report.
type CreateReportRequest struct {
	VideoID string `json:"videoId"`
	Reason  string `json:"reason"`
	Details string `json:"details,omitempty"`
}

// ReportResponse is the API response after submitting a report.
type ReportResponse struct {
	Report       *Report `json:"report"`
	VideoBlocked bool    `json:"videoBlocked"`
}
