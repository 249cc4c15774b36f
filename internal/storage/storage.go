package storage

// Package storage owns the physical bytes under the upload root. It is the
// only writer to per-customer folders; document metadata lives in the
// repository layer and the two are kept consistent by the document service.

import (
	"context"
	"io"
)

// Placement describes where an upload landed.
type Placement struct {
	// StoredFilename is the final name inside the customer folder, after any
	// collision suffixing.
	StoredFilename string
	// RelativePath is the path relative to the upload root. Only this form is
	// persisted, keeping the store relocatable.
	RelativePath string
	// Size is the placed file's size in bytes.
	Size int64
}

// FileStore places, archives, and removes document files on behalf of the
// document service.
type FileStore interface {
	// PlaceUpload moves the temp file into the customer folder under the
	// candidate filename, probing numeric suffixes (_1, _2, ...) while the
	// name is taken. Folder creation is idempotent. The move is all-or-nothing
	// from the caller's perspective.
	PlaceUpload(ctx context.Context, tempPath, folderName, filename string) (*Placement, error)

	// ArchiveVersion copies the current primary file into the versions
	// subfolder as {base}_v{version}{ext}. When the primary file is missing
	// from disk it returns (nil, nil): the caller skips archiving and
	// proceeds, because losing one history entry is less harmful than
	// blocking the upload.
	ArchiveVersion(ctx context.Context, relPath string, version int) (*Placement, error)

	// Remove deletes one file. A file already missing from disk is a no-op
	// success so cleanup stays idempotent.
	Remove(relPath string) error

	// RemoveFolder deletes a customer folder and everything beneath it.
	RemoveFolder(folderName string) error

	// Open opens a stored file for reading.
	Open(relPath string) (io.ReadCloser, error)

	// Exists reports whether a stored file is present on disk.
	Exists(relPath string) bool
}
