package services

import (
	"context"
	"fmt"
	"time"

	"ayaocrm/internal/audit"
	"ayaocrm/internal/database"
	"ayaocrm/internal/models"

	"github.com/xuri/excelize/v2"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	customerHeader = []any{
		"id", "name", "whatsapp", "line", "telegram", "country", "city", "age", "job", "income",
		"marital_status", "deal_amount", "level", "progress", "main_owner", "assistant", "notes", "created_at",
	}
	followupHeader = []any{"id", "customer_id", "author", "note", "next_action", "created_at"}
)

// ExportService renders listings as single-sheet spreadsheets. Nothing is
// persisted; the caller streams the bytes.
type ExportService struct {
	customers *CustomerService
	followups *FollowupService
	audit     *audit.Log
}

func NewExportService(customers *CustomerService, followups *FollowupService, auditLog *audit.Log) *ExportService {
	return &ExportService{customers: customers, followups: followups, audit: auditLog}
}

func (s *ExportService) Customers(ctx context.Context, actor models.Actor, filter models.CustomerFilter) ([]byte, error) {
	customers, err := s.customers.List(ctx, actor, filter)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []any{
			c.ID, c.Name, c.WhatsApp, c.Line, c.Telegram, c.Country, c.City, c.Age, c.Job, c.Income,
			c.MaritalStatus, c.DealAmount, c.Level, c.Progress, c.MainOwner, c.Assistant, c.Notes,
			database.FormatTime(c.CreatedAt),
		})
	}

	out, err := writeSheet("customers", customerHeader, rows)
	if err != nil {
		return nil, err
	}

	s.audit.Append(ctx, audit.Entry{
		Actor: actor.Name(), Action: "export_customers", Table: "customers",
		Details: map[string]any{"rows": len(rows), "owner": filter.Owner},
	})
	return out, nil
}

func (s *ExportService) CustomerFollowups(ctx context.Context, actor models.Actor, customerID string) ([]byte, error) {
	followups, err := s.followups.ListForCustomer(ctx, actor, customerID)
	if err != nil {
		return nil, err
	}
	return s.exportFollowups(ctx, actor, customerID, followups)
}

func (s *ExportService) RecentFollowups(ctx context.Context, actor models.Actor, since time.Time) ([]byte, error) {
	followups, err := s.followups.ListRecent(ctx, actor, since)
	if err != nil {
		return nil, err
	}
	return s.exportFollowups(ctx, actor, "", followups)
}

func (s *ExportService) exportFollowups(ctx context.Context, actor models.Actor, customerID string, followups []models.Followup) ([]byte, error) {
	rows := make([][]any, 0, len(followups))
	for _, f := range followups {
		rows = append(rows, []any{f.ID, f.CustomerID, f.Author, f.Note, f.NextAction, database.FormatTime(f.CreatedAt)})
	}

	out, err := writeSheet("followups", followupHeader, rows)
	if err != nil {
		return nil, err
	}

	s.audit.Append(ctx, audit.Entry{
		Actor: actor.Name(), Action: "export_followups", Table: "followups", TargetID: customerID,
		Details: map[string]any{"rows": len(rows)},
	})
	return out, nil
}

func writeSheet(name string, header []any, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", name); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet writer: %w", err)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
