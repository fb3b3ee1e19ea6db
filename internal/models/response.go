package models

import "time"

type UploadResponse struct {
	UploadID    string              `json:"uploadId"`
	FilePath    string              `json:"filePath"`
	Filename    string              `json:"filename"`
	Columns     []string            `json:"columns"`
	Preview     []map[string]string `json:"preview"`
	TotalRows   int                 `json:"totalRows"`
	InvalidRows int                 `json:"invalidRows"`
	Issues      []RowIssue          `json:"issues,omitempty"`
}

type GenerateResponse struct {
	DownloadURL string             `json:"downloadUrl"`
	Filename    string             `json:"filename"`
	JobID       string             `json:"jobId"`
	Summary     *GenerationSummary `json:"summary,omitempty"`
}

type JobResponse struct {
	UploadID  string             `json:"uploadId"`
	State     JobState           `json:"state"`
	Filename  string             `json:"filename"`
	TotalRows int                `json:"totalRows"`
	Summary   *GenerationSummary `json:"summary,omitempty"`
	Artifact  *Artifact          `json:"artifact,omitempty"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Uploads int    `json:"uploads"`
}
