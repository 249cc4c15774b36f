package backup

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"database/sql"

	"go.uber.org/zap"

	"docuvault/internal/access"
	"docuvault/internal/model"
	"docuvault/internal/repository"
	"docuvault/internal/service"
)

// archivePrefix names backup archives so List can recognize them among
// unrelated files at a destination.
const archivePrefix = "docuvault_backup_"

// ErrBackupInProgress is returned when a snapshot is requested while another
// one is still running.
var ErrBackupInProgress = errors.New("a backup is already in progress")

// Engine builds backup archives and distributes them to the configured
// destinations. A single Engine instance serializes snapshots; concurrent
// Create calls beyond the first are rejected, not queued.
type Engine struct {
	settings   repository.SettingsRepository
	exporter   *Exporter
	uploadRoot string
	stagingDir string
	replica    Replica
	audit      service.AuditRecorder
	log        *zap.Logger

	mu sync.Mutex
}

// NewEngine constructs a backup Engine. replica may be nil when no cloud
// destination is configured.
func NewEngine(
	settings repository.SettingsRepository,
	exporter *Exporter,
	uploadRoot string,
	stagingDir string,
	replica Replica,
	audit service.AuditRecorder,
	log *zap.Logger,
) *Engine {
	return &Engine{
		settings:   settings,
		exporter:   exporter,
		uploadRoot: uploadRoot,
		stagingDir: stagingDir,
		replica:    replica,
		audit:      audit,
		log:        log,
	}
}

// Create takes a snapshot: a zip archive holding a logical database export
// and the full upload tree, copied to every configured destination. Failure
// to deliver to one destination does not abort delivery to the others.
func (e *Engine) Create(ctx context.Context, actor access.Actor) (*model.BackupInfo, error) {
	if !access.Can(actor.Role, access.ActionManageBackups) {
		return nil, service.NewPermissionError("you do not have permission to manage backups")
	}

	cfg, err := e.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if len(cfg.LocalPaths) == 0 && !(cfg.CloudEnabled && e.replica != nil) {
		return nil, service.NewValidationError("no backup destinations configured")
	}

	if !e.mu.TryLock() {
		return nil, ErrBackupInProgress
	}
	defer e.mu.Unlock()

	started := time.Now().UTC()
	name := archivePrefix + started.Format("20060102_150405") + ".zip"

	if err := os.MkdirAll(e.stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	stagingPath := filepath.Join(e.stagingDir, name)
	if err := e.buildArchive(ctx, stagingPath); err != nil {
		os.Remove(stagingPath)
		return nil, err
	}
	defer os.Remove(stagingPath)

	info, err := os.Stat(stagingPath)
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	delivered := 0
	for _, dest := range cfg.LocalPaths {
		if err := copyArchive(stagingPath, filepath.Join(dest, name)); err != nil {
			e.log.Warn("backup delivery failed",
				zap.String("destination", dest),
				zap.String("archive", name),
				zap.Error(err))
			continue
		}
		delivered++
	}
	if cfg.CloudEnabled && e.replica != nil {
		if err := e.replica.Upload(ctx, name, stagingPath); err != nil {
			e.log.Warn("backup cloud replica failed", zap.String("archive", name), zap.Error(err))
		} else {
			delivered++
		}
	}
	if delivered == 0 {
		return nil, fmt.Errorf("backup archive could not be delivered to any destination")
	}

	e.audit.Record(ctx, model.AuditEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		IPAddress:  actor.IP,
		Action:     model.ActionBackupCreate,
		EntityType: "backup",
		EntityName: name,
		NewValues: map[string]string{
			"size_bytes":   fmt.Sprint(info.Size()),
			"destinations": fmt.Sprint(delivered),
		},
	})
	e.log.Info("backup created",
		zap.String("archive", name),
		zap.Int64("size_bytes", info.Size()),
		zap.Int("destinations", delivered),
		zap.Duration("took", time.Since(started)))

	return &model.BackupInfo{
		Filename:  name,
		Size:      info.Size(),
		CreatedAt: started,
	}, nil
}

// List returns the backup archives found at all configured local
// destinations, newest first. Destinations that cannot be read are skipped.
func (e *Engine) List(ctx context.Context, actor access.Actor) ([]model.BackupInfo, error) {
	if !access.Can(actor.Role, access.ActionManageBackups) {
		return nil, service.NewPermissionError("you do not have permission to manage backups")
	}

	cfg, err := e.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	backups := make([]model.BackupInfo, 0)
	seen := make(map[string]struct{})
	for _, dest := range cfg.LocalPaths {
		entries, err := os.ReadDir(dest)
		if err != nil {
			e.log.Warn("backup destination unreadable", zap.String("destination", dest), zap.Error(err))
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !isArchiveName(entry.Name()) {
				continue
			}
			path := filepath.Join(dest, entry.Name())
			if _, dup := seen[entry.Name()]; dup {
				continue
			}
			fi, err := entry.Info()
			if err != nil {
				continue
			}
			seen[entry.Name()] = struct{}{}
			backups = append(backups, model.BackupInfo{
				Filename:  entry.Name(),
				Path:      path,
				Size:      fi.Size(),
				CreatedAt: fi.ModTime().UTC(),
			})
		}
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Config returns the current backup configuration. An unset configuration
// yields the zero value rather than an error.
func (e *Engine) Config(ctx context.Context, actor access.Actor) (*model.BackupConfig, error) {
	if !access.Can(actor.Role, access.ActionManageBackups) {
		return nil, service.NewPermissionError("you do not have permission to manage backups")
	}
	return e.loadConfig(ctx)
}

// SetConfig validates and persists the backup configuration. Every local
// destination must be an existing writable directory.
func (e *Engine) SetConfig(ctx context.Context, actor access.Actor, cfg model.BackupConfig) error {
	if !access.Can(actor.Role, access.ActionManageBackups) {
		return service.NewPermissionError("you do not have permission to manage backups")
	}

	for _, dest := range cfg.LocalPaths {
		if strings.TrimSpace(dest) == "" {
			return service.NewValidationError("backup destination cannot be empty")
		}
		fi, err := os.Stat(dest)
		if err != nil || !fi.IsDir() {
			return service.NewValidationError("backup destination %s is not an existing directory", dest)
		}
		probe := filepath.Join(dest, ".docuvault_write_check")
		if err := os.WriteFile(probe, nil, 0o644); err != nil {
			return service.NewValidationError("backup destination %s is not writable", dest)
		}
		os.Remove(probe)
	}
	if cfg.CloudEnabled && e.replica == nil {
		return service.NewValidationError("cloud backup is enabled but no cloud storage is configured")
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode backup config: %w", err)
	}
	if err := e.settings.Put(ctx, repository.SettingBackupConfig, string(raw)); err != nil {
		return fmt.Errorf("save backup config: %w", err)
	}
	return nil
}

func (e *Engine) loadConfig(ctx context.Context) (*model.BackupConfig, error) {
	raw, err := e.settings.Get(ctx, repository.SettingBackupConfig)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.BackupConfig{}, nil
		}
		return nil, fmt.Errorf("load backup config: %w", err)
	}
	var cfg model.BackupConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("decode backup config: %w", err)
	}
	return &cfg, nil
}

// buildArchive writes the zip stream: database/<table>.json entries first,
// then the upload tree under uploads/.
func (e *Engine) buildArchive(ctx context.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	for _, table := range e.exporter.Tables() {
		data, err := e.exporter.ExportTable(ctx, table)
		if err != nil {
			return err
		}
		w, err := zw.Create("database/" + table + ".json")
		if err != nil {
			return fmt.Errorf("add %s export: %w", table, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write %s export: %w", table, err)
		}
	}

	err = filepath.WalkDir(e.uploadRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(e.uploadRoot, p)
		if err != nil {
			return err
		}
		w, err := zw.Create("uploads/" + filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(p)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("archive upload tree: %w", err)
	}
	return nil
}

func isArchiveName(name string) bool {
	return strings.HasPrefix(name, archivePrefix) && strings.HasSuffix(name, ".zip")
}

func copyArchive(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
