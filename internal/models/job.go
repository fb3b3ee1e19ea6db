package models

import "time"

// JobState is the lifecycle state of one upload.
type JobState string

const (
	StateUploaded   JobState = "uploaded"
	StatePreviewed  JobState = "previewed"
	StateGenerating JobState = "generating"
	StateReady      JobState = "ready"
	StateFailed     JobState = "failed"
)

// MaxSummaryIssues bounds the issue list carried in a summary.
const MaxSummaryIssues = 50

type Job struct {
	UploadID     string
	State        JobState
	Dataset      *Dataset
	Summary      *GenerationSummary
	Artifact     *Artifact
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ExpiresAt    time.Time
}

// RenderJob is the transient record of one generate request.
type RenderJob struct {
	UploadID     string
	Design       DesignConfig
	ResolvedRows int
	FailedRows   int
}

type GenerationSummary struct {
	TotalRows     int        `json:"totalRows"`
	InvalidRows   int        `json:"invalidRows"`
	MissingPhotos int        `json:"missingPhotos"`
	QRCodes       int        `json:"qrCodes"`
	Pages         int        `json:"pages"`
	Issues        []RowIssue `json:"issues,omitempty"`
}

// AddIssue appends an issue, dropping it once the list is full.
func (s *GenerationSummary) AddIssue(issue RowIssue) {
	if len(s.Issues) < MaxSummaryIssues {
		s.Issues = append(s.Issues, issue)
	}
}

type Artifact struct {
	ID          string    `json:"id"`
	UploadID    string    `json:"uploadId"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	Pages       int       `json:"pages"`
	StorageKey  string    `json:"-"`
	DownloadURL string    `json:"downloadUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
