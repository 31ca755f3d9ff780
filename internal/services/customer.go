package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ayaocrm/internal/audit"
	"ayaocrm/internal/database"
	"ayaocrm/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrCustomerNotFound = fmt.Errorf("customer %w", models.ErrNotFound)

const customerColumns = `id, name, whatsapp, line, telegram, country, city, age, job, income,
	marital_status, deal_amount, level, progress, main_owner, assistant, notes, created_at`

// visibleClause restricts rows to those a non-admin owns or assists on.
// The assistant column holds a comma-separated list of usernames with
// spaces ignored. A username holding a comma never matches an assistant
// entry. Bind visibleArgs after it.
func visibleClause(alias string) string {
	return "(" + alias + "main_owner = ? OR (instr(?, ',') = 0 AND instr(',' || replace(" + alias + "assistant, ' ', '') || ',', ',' || ? || ',') > 0))"
}

func visibleArgs(actor models.Actor) []any {
	return []any{actor.Username, actor.Username, actor.Username}
}

type CustomerService struct {
	db     *database.DB
	audit  *audit.Log
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

func NewCustomerService(db *database.DB, auditLog *audit.Log, logger zerolog.Logger) *CustomerService {
	return &CustomerService{
		db:     db,
		audit:  auditLog,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *CustomerService) WithClock(now func() time.Time) *CustomerService {
	s.now = now
	return s
}

// Insert stores a new customer and returns its generated id. An empty
// main owner defaults to the acting user.
func (s *CustomerService) Insert(ctx context.Context, actor models.Actor, in models.CustomerInput) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.MainOwner == "" {
		in.MainOwner = actor.Username
	}
	if err := models.Validate(in); err != nil {
		return "", err
	}

	id := s.newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, in.Name, in.WhatsApp, in.Line, in.Telegram, in.Country, in.City, in.Age, in.Job, in.Income,
		in.MaritalStatus, in.DealAmount, in.Level, in.Progress, in.MainOwner, in.Assistant, in.Notes,
		database.FormatTime(s.now()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert customer: %w", err)
	}

	s.audit.Append(ctx, audit.Entry{
		Actor: actor.Name(), Action: "add_customer", Table: "customers", TargetID: id, Details: in,
	})
	return id, nil
}

// Get returns ErrCustomerNotFound for missing rows and for rows the actor
// may not see.
func (s *CustomerService) Get(ctx context.Context, actor models.Actor, id string) (*models.Customer, error) {
	query := "SELECT " + customerColumns + " FROM customers WHERE id = ?"
	args := []any{id}
	if !actor.IsAdmin() {
		query += " AND " + visibleClause("")
		args = append(args, visibleArgs(actor)...)
	}

	c, err := scanCustomer(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

// List returns customers newest first, scoped to what the actor may see.
func (s *CustomerService) List(ctx context.Context, actor models.Actor, filter models.CustomerFilter) ([]models.Customer, error) {
	var where []string
	var args []any
	if !actor.IsAdmin() {
		where = append(where, visibleClause(""))
		args = append(args, visibleArgs(actor)...)
	}
	if filter.Owner != "" {
		where = append(where, "main_owner = ?")
		args = append(args, filter.Owner)
	}

	query := "SELECT " + customerColumns + " FROM customers"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

// Update writes only the fields set on patch and returns the stored row.
// The row is returned even when the patch moves it out of the actor's view.
func (s *CustomerService) Update(ctx context.Context, actor models.Actor, id string, patch models.CustomerPatch) (*models.Customer, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil, models.Invalid("no fields to update")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, models.Invalid("name is required")
	}
	if err := models.Validate(patch); err != nil {
		return nil, err
	}

	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	details := make(map[string]any, len(fields))
	for _, f := range fields {
		sets = append(sets, f.Column+" = ?")
		args = append(args, f.Value)
		details[f.Column] = f.Value
	}
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, "UPDATE customers SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrCustomerNotFound
	}

	s.audit.Append(ctx, audit.Entry{
		Actor: actor.Name(), Action: "update_customer", Table: "customers", TargetID: id, Details: details,
	})
	return s.Get(ctx, models.SystemActor, id)
}

// Delete hard-removes the customer. Its follow-ups are kept.
func (s *CustomerService) Delete(ctx context.Context, actor models.Actor, id string) error {
	c, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM customers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrCustomerNotFound
	}

	s.audit.Append(ctx, audit.Entry{
		Actor: actor.Name(), Action: "delete_customer", Table: "customers", TargetID: id,
		Details: map[string]string{"name": c.Name},
	})
	return nil
}

// Stats summarises the customers visible to the actor.
func (s *CustomerService) Stats(ctx context.Context, actor models.Actor) (*models.CustomerStats, error) {
	customers, err := s.List(ctx, actor, models.CustomerFilter{})
	if err != nil {
		return nil, err
	}

	stats := &models.CustomerStats{
		Total:      len(customers),
		ByLevel:    map[string]int{},
		ByCountry:  map[string]int{},
		DealsByDay: map[string]int{},
	}
	owners := map[string]struct{}{}
	for _, c := range customers {
		if c.MainOwner != "" {
			owners[c.MainOwner] = struct{}{}
		}
		stats.ByLevel[c.Level]++
		stats.ByCountry[c.Country]++
		if c.Progress == models.ProgressCompleted {
			stats.Completed++
			stats.DealsByDay[c.CreatedAt.Format("2006-01-02")]++
		}
	}
	stats.Owners = len(owners)
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var c models.Customer
	var created string
	if err := row.Scan(
		&c.ID, &c.Name, &c.WhatsApp, &c.Line, &c.Telegram, &c.Country, &c.City, &c.Age, &c.Job, &c.Income,
		&c.MaritalStatus, &c.DealAmount, &c.Level, &c.Progress, &c.MainOwner, &c.Assistant, &c.Notes, &created,
	); err != nil {
		return nil, err
	}
	t, err := database.ParseTime(created)
	if err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", created, err)
	}
	c.CreatedAt = t
	return &c, nil
}
