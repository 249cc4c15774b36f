package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"docuvault/internal/naming"
)

const (
	customersDir = "customers"
	versionsDir  = "versions"
	// maxCollisionProbes bounds the suffix search; hitting it means something
	// is wrong with the folder, not a real same-day collision.
	maxCollisionProbes = 1000
)

// Local is the filesystem implementation of FileStore, rooted at an upload
// directory. Layout: {root}/customers/{folderName}/ holds primary files,
// with superseded versions under a versions/ subfolder.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{root: abs}, nil
}

var _ FileStore = (*Local)(nil)

// Root returns the absolute upload root. The backup engine archives this tree.
func (l *Local) Root() string {
	return l.root
}

// ensureCustomerFolder creates the customer folder and its versions subfolder.
// Creating an already-existing folder is a no-op, not an error.
func (l *Local) ensureCustomerFolder(folderName string) (string, error) {
	folder := filepath.Join(l.root, customersDir, folderName)
	if err := os.MkdirAll(filepath.Join(folder, versionsDir), 0o755); err != nil {
		return "", fmt.Errorf("create customer folder: %w", err)
	}
	return folder, nil
}

// PlaceUpload moves tempPath into the customer folder, resolving same-name
// collisions with numeric suffixes. Collisions only occur on the
// create-new-document path: same-day re-upload before any document row
// exists for the slot.
func (l *Local) PlaceUpload(ctx context.Context, tempPath, folderName, filename string) (*Placement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	folder, err := l.ensureCustomerFolder(folderName)
	if err != nil {
		return nil, err
	}

	final := filename
	for n := 1; fileExists(filepath.Join(folder, final)); n++ {
		if n > maxCollisionProbes {
			return nil, fmt.Errorf("no free filename for %q after %d probes", filename, maxCollisionProbes)
		}
		final = naming.SuffixedFilename(filename, n)
	}

	dest := filepath.Join(folder, final)
	if err := moveFile(tempPath, dest); err != nil {
		return nil, fmt.Errorf("place upload: %w", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("stat placed file: %w", err)
	}

	rel, err := filepath.Rel(l.root, dest)
	if err != nil {
		return nil, fmt.Errorf("relativize path: %w", err)
	}
	return &Placement{
		StoredFilename: final,
		RelativePath:   filepath.ToSlash(rel),
		Size:           info.Size(),
	}, nil
}

// ArchiveVersion copies the primary file at relPath into the sibling
// versions folder before the new upload overwrites the slot. A missing
// primary file yields (nil, nil): metadata/filesystem drift is tolerated.
func (l *Local) ArchiveVersion(ctx context.Context, relPath string, version int) (*Placement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := filepath.Join(l.root, filepath.FromSlash(relPath))
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat current file: %w", err)
	}

	dir := filepath.Dir(src)
	if err := os.MkdirAll(filepath.Join(dir, versionsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create versions folder: %w", err)
	}

	versionName := naming.VersionFilename(filepath.Base(src), version)
	dest := filepath.Join(dir, versionsDir, versionName)
	if err := copyFile(src, dest); err != nil {
		return nil, fmt.Errorf("archive version: %w", err)
	}

	rel, err := filepath.Rel(l.root, dest)
	if err != nil {
		return nil, fmt.Errorf("relativize path: %w", err)
	}
	return &Placement{
		StoredFilename: versionName,
		RelativePath:   filepath.ToSlash(rel),
		Size:           info.Size(),
	}, nil
}

// Remove deletes the file at relPath. Already-gone files are a no-op success.
func (l *Local) Remove(relPath string) error {
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(relPath)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// RemoveFolder deletes a customer folder and all its contents.
func (l *Local) RemoveFolder(folderName string) error {
	if folderName == "" {
		return fmt.Errorf("folder name is required")
	}
	if err := os.RemoveAll(filepath.Join(l.root, customersDir, folderName)); err != nil {
		return fmt.Errorf("remove customer folder: %w", err)
	}
	return nil
}

// Open opens a stored file for reading.
func (l *Local) Open(relPath string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(l.root, filepath.FromSlash(relPath)))
}

// Exists reports whether the file at relPath is present on disk.
func (l *Local) Exists(relPath string) bool {
	return fileExists(filepath.Join(l.root, filepath.FromSlash(relPath)))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// moveFile renames src to dest, falling back to copy+delete when the rename
// crosses filesystems. The destination is never left partially written: the
// copy fallback writes to a temp file in the destination directory and
// renames it into place.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	if err := copyFile(src, dest); err != nil {
		return err
	}
	return os.Remove(src)
}

// copyFile writes src's bytes to dest atomically: content goes to a temp file
// in dest's directory first, then a rename publishes it.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".placing-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
