package backup

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mtaasisi/lats-pos-api/internal/obs"
)

const lockKey = "pos:backup:lock"

// ErrLocked indicates another export is already in progress.
var ErrLocked = errors.New("backup already running")

// Snapshotter produces the full export payload, keyed by table name.
type Snapshotter interface {
	Snapshot(ctx context.Context) (map[string]any, error)
}

// PGSnapshot reads the core tables through pgx.
type PGSnapshot struct {
	Pool *pgxpool.Pool
}

var exportTables = []string{"products", "categories", "brands", "customers", "sales", "sale_items", "delivery_options"}

// Snapshot dumps each core table into a generic row list.
func (s PGSnapshot) Snapshot(ctx context.Context) (map[string]any, error) {
	out := make(map[string]any, len(exportTables))
	for _, table := range exportTables {
		rows, err := s.Pool.Query(ctx, "SELECT * FROM "+table)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", table, err)
		}
		records, err := pgx.CollectRows(rows, pgx.RowToMap)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", table, err)
		}
		out[table] = records
	}
	return out, nil
}

// Exporter fulfils backup export tasks.
type Exporter struct {
	Store   Store
	Source  Snapshotter
	Redis   *redis.Client
	Dir     string
	LockTTL time.Duration
	Log     zerolog.Logger
	Now     func() time.Time
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Exporter) lockTTL() time.Duration {
	if e.LockTTL <= 0 {
		return 10 * time.Minute
	}
	return e.LockTTL
}

// ProcessTask implements asynq.Handler for export tasks.
func (e *Exporter) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload ExportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode export payload: %w", err)
	}
	// ErrLocked propagates so asynq retries once the running export
	// releases the lock.
	return e.Run(ctx, payload.BackupID)
}

// Run performs one export: lock, dump, archive, record.
func (e *Exporter) Run(ctx context.Context, backupID uuid.UUID) error {
	acquired, err := e.Redis.SetNX(ctx, lockKey, backupID.String(), e.lockTTL()).Result()
	if err != nil {
		return fmt.Errorf("acquire backup lock: %w", err)
	}
	if !acquired {
		return ErrLocked
	}
	defer func() { _ = e.Redis.Del(context.Background(), lockKey).Err() }()

	if err := e.Store.MarkRunning(ctx, backupID); err != nil {
		return err
	}
	fileName, size, err := e.export(ctx)
	if err != nil {
		e.Log.Error().Err(err).Str("backup_id", backupID.String()).Msg("backup export failed")
		if markErr := e.Store.MarkFailed(ctx, backupID, err.Error()); markErr != nil {
			e.Log.Error().Err(markErr).Msg("mark backup failed")
		}
		e.countRun("failed")
		return err
	}
	if err := e.Store.MarkCompleted(ctx, backupID, fileName, size); err != nil {
		return err
	}
	e.countRun("ok")
	e.Log.Info().Str("backup_id", backupID.String()).Str("file", fileName).Int64("bytes", size).Msg("backup completed")
	return nil
}

func (e *Exporter) export(ctx context.Context) (string, int64, error) {
	snapshot, err := e.Source.Snapshot(ctx)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create backup dir: %w", err)
	}
	fileName := fmt.Sprintf("backup-%s.json.gz", e.now().UTC().Format("20060102-150405"))
	path := filepath.Join(e.Dir, fileName)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create archive: %w", err)
	}
	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(snapshot); err != nil {
		_ = gz.Close()
		_ = f.Close()
		return "", 0, fmt.Errorf("encode archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		_ = f.Close()
		return "", 0, fmt.Errorf("finish archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("close archive: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("stat archive: %w", err)
	}
	return fileName, info.Size(), nil
}

func (e *Exporter) countRun(result string) {
	if obs.BackupRunsTotal != nil {
		obs.BackupRunsTotal.WithLabelValues(result).Inc()
	}
}
