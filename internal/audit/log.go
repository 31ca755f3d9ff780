// Package audit is the append-only action log. Entries are never updated
// or deleted; writes are independent of the mutation they describe.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ayaocrm/internal/database"
	"ayaocrm/internal/metrics"
	"ayaocrm/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultRecentLimit = 500

type Entry struct {
	Actor    string
	Action   string
	Table    string
	TargetID string
	// Details is stored verbatim when it is a string, as JSON otherwise.
	Details any
}

type Log struct {
	db     *database.DB
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

func NewLog(db *database.DB, logger zerolog.Logger) *Log {
	return &Log{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// WithClock overrides the time source. Used by tests.
func (l *Log) WithClock(now func() time.Time) *Log {
	l.now = now
	return l
}

func (l *Log) Record(ctx context.Context, e Entry) error {
	actor := e.Actor
	if actor == "" {
		actor = models.SystemActor.Username
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO action_logs (id, username, action, target_table, target_id, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.newID(), actor, e.Action, e.Table, e.TargetID, encodeDetails(e.Details), database.FormatTime(l.now()),
	)
	if err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	metrics.MutationsTotal.WithLabelValues(e.Action).Inc()
	return nil
}

// Append records e on a best-effort basis: a failure is logged as a warning
// and counted, never returned.
func (l *Log) Append(ctx context.Context, e Entry) {
	if err := l.Record(ctx, e); err != nil {
		metrics.AuditWriteFailuresTotal.Inc()
		l.logger.Warn().
			Err(err).
			Str("action", e.Action).
			Str("target_table", e.Table).
			Str("target_id", e.TargetID).
			Msg("audit entry not persisted")
	}
}

// Recent returns the newest entries first. Admin only.
func (l *Log) Recent(ctx context.Context, actor models.Actor, limit int) ([]models.ActionLogEntry, error) {
	if err := models.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, username, action, target_table, target_id, details, created_at
		FROM action_logs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	logs := []models.ActionLogEntry{}
	for rows.Next() {
		var entry models.ActionLogEntry
		var created string
		if err := rows.Scan(&entry.ID, &entry.Username, &entry.Action, &entry.TargetTable, &entry.TargetID, &entry.Details, &created); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if entry.CreatedAt, err = database.ParseTime(created); err != nil {
			return nil, fmt.Errorf("bad audit timestamp %q: %w", created, err)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func encodeDetails(details any) string {
	switch d := details.(type) {
	case nil:
		return ""
	case string:
		return d
	}
	b, err := json.Marshal(details)
	if err != nil {
		return fmt.Sprint(details)
	}
	return string(b)
}
