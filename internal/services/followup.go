package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ayaocrm/internal/audit"
	"ayaocrm/internal/database"
	"ayaocrm/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultRecentLimit = 1000

// FollowupService is an append-only ledger of notes per customer. There is
// no update or delete.
type FollowupService struct {
	db        *database.DB
	customers *CustomerService
	audit     *audit.Log
	logger    zerolog.Logger
	limit     int
	now       func() time.Time
	newID     func() string
}

func NewFollowupService(db *database.DB, customers *CustomerService, auditLog *audit.Log, logger zerolog.Logger, limit int) *FollowupService {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &FollowupService{
		db:        db,
		customers: customers,
		audit:     auditLog,
		logger:    logger,
		limit:     limit,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *FollowupService) WithClock(now func() time.Time) *FollowupService {
	s.now = now
	return s
}

// Add appends a note to a customer the actor can see.
func (s *FollowupService) Add(ctx context.Context, actor models.Actor, customerID, note, nextAction string) (string, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return "", models.Invalid("note is required")
	}
	if _, err := s.customers.Get(ctx, actor, customerID); err != nil {
		return "", err
	}

	id := s.newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO followups (id, customer_id, author, note, next_action, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, customerID, actor.Name(), note, strings.TrimSpace(nextAction), database.FormatTime(s.now()))
	if err != nil {
		return "", fmt.Errorf("failed to add followup: %w", err)
	}

	s.audit.Append(ctx, audit.Entry{
		Actor: actor.Name(), Action: "add_followup", Table: "followups", TargetID: id,
		Details: map[string]string{"customer_id": customerID, "note": note},
	})
	return id, nil
}

// ListForCustomer returns the customer's notes newest first.
func (s *FollowupService) ListForCustomer(ctx context.Context, actor models.Actor, customerID string) ([]models.Followup, error) {
	if _, err := s.customers.Get(ctx, actor, customerID); err != nil {
		return nil, err
	}

	return s.query(ctx, `
		SELECT id, customer_id, author, note, next_action, created_at
		FROM followups
		WHERE customer_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, customerID)
}

// ListRecent returns notes created at or after since, across every customer
// the actor can see, newest first and capped at the configured limit.
func (s *FollowupService) ListRecent(ctx context.Context, actor models.Actor, since time.Time) ([]models.Followup, error) {
	query := `
		SELECT f.id, f.customer_id, f.author, f.note, f.next_action, f.created_at
		FROM followups f`
	args := []any{}
	if !actor.IsAdmin() {
		query += ` JOIN customers c ON c.id = f.customer_id
		WHERE f.created_at >= ? AND ` + visibleClause("c.")
		args = append(args, database.FormatTime(since))
		args = append(args, visibleArgs(actor)...)
	} else {
		query += ` WHERE f.created_at >= ?`
		args = append(args, database.FormatTime(since))
	}
	query += ` ORDER BY f.created_at DESC, f.rowid DESC LIMIT ?`
	args = append(args, s.limit)

	return s.query(ctx, query, args...)
}

// Today lists notes since midnight UTC of the service clock.
func (s *FollowupService) Today(ctx context.Context, actor models.Actor) ([]models.Followup, error) {
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.ListRecent(ctx, actor, midnight)
}

func (s *FollowupService) query(ctx context.Context, query string, args ...any) ([]models.Followup, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list followups: %w", err)
	}
	defer rows.Close()

	followups := []models.Followup{}
	for rows.Next() {
		var f models.Followup
		var created string
		if err := rows.Scan(&f.ID, &f.CustomerID, &f.Author, &f.Note, &f.NextAction, &created); err != nil {
			return nil, fmt.Errorf("failed to scan followup: %w", err)
		}
		if f.CreatedAt, err = database.ParseTime(created); err != nil {
			return nil, fmt.Errorf("bad created_at %q: %w", created, err)
		}
		followups = append(followups, f)
	}
	return followups, rows.Err()
}
