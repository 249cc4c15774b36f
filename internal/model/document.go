package model

import "time"

// Document is the current file occupying a (customer, document type) slot.
// At most one row exists per slot; re-uploading to an occupied slot bumps
// CurrentVersion and archives the previous file as a DocumentVersion.
// FilePath is always relative to the upload root so the store stays
// relocatable.
type Document struct {
	ID               string    `json:"id"`
	CustomerID       string    `json:"customer_id"`
	DocumentTypeID   string    `json:"document_type_id"`
	OriginalFilename string    `json:"original_filename"`
	StoredFilename   string    `json:"stored_filename"`
	FilePath         string    `json:"file_path"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type"`
	CurrentVersion   int       `json:"current_version"`
	UploadedBy       string    `json:"uploaded_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Joined display fields, populated by list/get queries.
	CustomerName     string `json:"customer_name,omitempty"`
	DocumentTypeName string `json:"document_type_name,omitempty"`
	UploadedByName   string `json:"uploaded_by_name,omitempty"`
}

// DocumentVersion is an archived, superseded copy of a document file.
// VersionNumber is the version the file was before being replaced; for a
// given document the numbers are contiguous starting at 1.
type DocumentVersion struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	VersionNumber int       `json:"version_number"`
	FilePath      string    `json:"file_path"`
	FileSize      int64     `json:"file_size"`
	UploadedBy    string    `json:"uploaded_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
