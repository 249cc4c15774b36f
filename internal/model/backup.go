package model

import "time"

// BackupInfo describes a backup archive found at a destination directory.
// Backups are artifacts on disk, not database rows.
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupConfig is the backup destination configuration, persisted as a
// settings value. Each local path receives a copy of every archive; the
// optional cloud replica uploads to an S3-compatible bucket.
type BackupConfig struct {
	LocalPaths   []string `json:"local_paths"`
	CloudEnabled bool     `json:"cloud_enabled"`
}
