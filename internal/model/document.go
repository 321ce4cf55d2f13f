package model

import "time"

// OCRStatus tracks the text-extraction pipeline state of a document.
// The ingestion path only ever sets StatusPending; later transitions are
// driven by the extraction worker through the service layer.
type OCRStatus string

const (
	StatusPending    OCRStatus = "pending"
	StatusProcessing OCRStatus = "processing"
	StatusDone       OCRStatus = "done"
	StatusFailed     OCRStatus = "failed"
)

// Valid reports whether s is one of the known OCR states.
func (s OCRStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDone, StatusFailed:
		return true
	}
	return false
}

// Document represents an ingested case file and its metadata.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, ingest, storage) without
// coupling to persistence.
type Document struct {
	ID               string    `json:"id"`
	CaseID           string    `json:"case_id"`
	OriginalFilename string    `json:"original_filename"`
	StoredFilename   string    `json:"stored_filename"`
	StoragePath      string    `json:"storage_path"`
	Size             int64     `json:"size"`
	SHA256           string    `json:"sha256"`
	FileType         string    `json:"file_type"`
	ContentType      string    `json:"content_type"`
	UploadedBy       string    `json:"uploaded_by"`
	UploadedAt       time.Time `json:"uploaded_at"`
	OCRStatus        OCRStatus `json:"ocr_status"`
	Tags             []string  `json:"tags"`
	Version          int       `json:"version"`
}
