// Package backup manages on-demand export archives of the core tables.
package backup

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeExport is the asynq task type for backup exports.
const TypeExport = "backup:export"

// ExportPayload identifies the backup row a worker should fulfil.
type ExportPayload struct {
	BackupID uuid.UUID `json:"backupId"`
}

// NewExportTask builds the asynq task for a backup request.
func NewExportTask(backupID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(ExportPayload{BackupID: backupID})
	if err != nil {
		return nil, fmt.Errorf("marshal export payload: %w", err)
	}
	return asynq.NewTask(TypeExport, payload, asynq.MaxRetry(3)), nil
}
