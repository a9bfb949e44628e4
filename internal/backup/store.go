package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested backup row does not exist.
var ErrNotFound = errors.New("backup not found")

// Backup statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Backup is one export run.
type Backup struct {
	ID          uuid.UUID  `json:"id"`
	Status      string     `json:"status"`
	FileName    string     `json:"fileName,omitempty"`
	FileSize    int64      `json:"fileSize,omitempty"`
	Error       string     `json:"error,omitempty"`
	RequestedAt time.Time  `json:"requestedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Store persists backup run records.
type Store interface {
	Create(ctx context.Context) (Backup, error)
	MarkRunning(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID, fileName string, fileSize int64) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	List(ctx context.Context) ([]Backup, error)
	Get(ctx context.Context, id uuid.UUID) (Backup, error)
}

// PGStore is the pgx-backed Store implementation.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const backupColumns = "id, status, file_name, file_size, error, requested_at, completed_at"

func scanBackup(row pgx.Row) (Backup, error) {
	var b Backup
	err := row.Scan(&b.ID, &b.Status, &b.FileName, &b.FileSize, &b.Error, &b.RequestedAt, &b.CompletedAt)
	return b, err
}

// Create inserts a pending backup row.
func (s *PGStore) Create(ctx context.Context) (Backup, error) {
	row := s.pool.QueryRow(ctx,
		"INSERT INTO backups (id, status) VALUES ($1, $2) RETURNING "+backupColumns,
		uuid.New(), StatusPending)
	b, err := scanBackup(row)
	if err != nil {
		return Backup{}, fmt.Errorf("create backup row: %w", err)
	}
	return b, nil
}

// MarkRunning flips a backup row to running.
func (s *PGStore) MarkRunning(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, "UPDATE backups SET status = $2 WHERE id = $1", StatusRunning)
}

// MarkCompleted records the finished archive.
func (s *PGStore) MarkCompleted(ctx context.Context, id uuid.UUID, fileName string, fileSize int64) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE backups SET status = $2, file_name = $3, file_size = $4, completed_at = now() WHERE id = $1",
		id, StatusCompleted, fileName, fileSize)
	if err != nil {
		return fmt.Errorf("mark backup completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed records a failed run with its error message.
func (s *PGStore) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE backups SET status = $2, error = $3, completed_at = now() WHERE id = $1",
		id, StatusFailed, message)
	if err != nil {
		return fmt.Errorf("mark backup failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns backup runs, newest first.
func (s *PGStore) List(ctx context.Context) ([]Backup, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+backupColumns+" FROM backups ORDER BY requested_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()
	var out []Backup
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Get fetches one backup row.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (Backup, error) {
	b, err := scanBackup(s.pool.QueryRow(ctx, "SELECT "+backupColumns+" FROM backups WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Backup{}, ErrNotFound
		}
		return Backup{}, fmt.Errorf("get backup: %w", err)
	}
	return b, nil
}

func (s *PGStore) setStatus(ctx context.Context, id uuid.UUID, query, status string) error {
	tag, err := s.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update backup status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
