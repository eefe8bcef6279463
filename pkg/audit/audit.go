// Package audit records administrative actions that change member balances
// or benefit state. Entries are emitted through the structured logger so
// they land in the same pipeline as request logs.
package audit

import (
	"context"
	"errors"

	"github.com/angelmondragon/loyalty-backend/pkg/logger"
)

// Entry describes a single administrative action.
type Entry struct {
	Action      string
	AdminUserID string
	UserID      string
	Detail      map[string]any
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type logRecorder struct {
	log *logger.Logger
}

// NewLogRecorder returns a Recorder that writes entries to the structured logger.
func NewLogRecorder(log *logger.Logger) (Recorder, error) {
	if log == nil {
		return nil, errors.New("audit: logger is required")
	}
	return &logRecorder{log: log}, nil
}

func (r *logRecorder) Record(ctx context.Context, entry Entry) {
	fields := map[string]any{
		"audit_action":  entry.Action,
		"admin_user_id": entry.AdminUserID,
	}
	if entry.UserID != "" {
		fields["user_id"] = entry.UserID
	}
	for key, value := range entry.Detail {
		fields[key] = value
	}
	r.log.Info(r.log.WithFields(ctx, fields), "audit")
}
