package models

import "time"

const (
	LevelNormal    = "normal"
	LevelImportant = "important"
	LevelVIP       = "VIP"

	ProgressPending     = "pending"
	ProgressNegotiating = "negotiating"
	ProgressCompleted   = "completed"
	ProgressLost        = "lost"
)

type Customer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	WhatsApp      string    `json:"whatsapp"`
	Line          string    `json:"line"`
	Telegram      string    `json:"telegram"`
	Country       string    `json:"country"`
	City          string    `json:"city"`
	Age           int       `json:"age"`
	Job           string    `json:"job"`
	Income        string    `json:"income"`
	MaritalStatus string    `json:"marital_status"`
	DealAmount    float64   `json:"deal_amount"`
	Level         string    `json:"level"`
	Progress      string    `json:"progress"`
	MainOwner     string    `json:"main_owner"`
	Assistant     string    `json:"assistant"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

type CustomerInput struct {
	Name          string  `json:"name" validate:"required,max=200"`
	WhatsApp      string  `json:"whatsapp" validate:"max=100"`
	Line          string  `json:"line" validate:"max=100"`
	Telegram      string  `json:"telegram" validate:"max=100"`
	Country       string  `json:"country" validate:"max=100"`
	City          string  `json:"city" validate:"max=100"`
	Age           int     `json:"age" validate:"gte=0,lte=150"`
	Job           string  `json:"job" validate:"max=100"`
	Income        string  `json:"income" validate:"max=100"`
	MaritalStatus string  `json:"marital_status" validate:"max=50"`
	DealAmount    float64 `json:"deal_amount" validate:"gte=0"`
	Level         string  `json:"level" validate:"omitempty,oneof=normal important VIP"`
	Progress      string  `json:"progress" validate:"omitempty,oneof=pending negotiating completed lost"`
	MainOwner     string  `json:"main_owner" validate:"max=64"`
	Assistant     string  `json:"assistant" validate:"max=500"`
	Notes         string  `json:"notes"`
}

// CustomerPatch carries a partial update; nil fields are left untouched.
type CustomerPatch struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	WhatsApp      *string  `json:"whatsapp,omitempty" validate:"omitempty,max=100"`
	Line          *string  `json:"line,omitempty" validate:"omitempty,max=100"`
	Telegram      *string  `json:"telegram,omitempty" validate:"omitempty,max=100"`
	Country       *string  `json:"country,omitempty" validate:"omitempty,max=100"`
	City          *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	Age           *int     `json:"age,omitempty" validate:"omitempty,gte=0,lte=150"`
	Job           *string  `json:"job,omitempty" validate:"omitempty,max=100"`
	Income        *string  `json:"income,omitempty" validate:"omitempty,max=100"`
	MaritalStatus *string  `json:"marital_status,omitempty" validate:"omitempty,max=50"`
	DealAmount    *float64 `json:"deal_amount,omitempty" validate:"omitempty,gte=0"`
	Level         *string  `json:"level,omitempty" validate:"omitempty,oneof=normal important VIP"`
	Progress      *string  `json:"progress,omitempty" validate:"omitempty,oneof=pending negotiating completed lost"`
	MainOwner     *string  `json:"main_owner,omitempty" validate:"omitempty,max=64"`
	Assistant     *string  `json:"assistant,omitempty" validate:"omitempty,max=500"`
	Notes         *string  `json:"notes,omitempty"`
}

// Fields returns the column -> value pairs set on the patch, in a stable order.
func (p CustomerPatch) Fields() []Field {
	var out []Field
	add := func(col string, set bool, v any) {
		if set {
			out = append(out, Field{Column: col, Value: v})
		}
	}
	add("name", p.Name != nil, deref(p.Name))
	add("whatsapp", p.WhatsApp != nil, deref(p.WhatsApp))
	add("line", p.Line != nil, deref(p.Line))
	add("telegram", p.Telegram != nil, deref(p.Telegram))
	add("country", p.Country != nil, deref(p.Country))
	add("city", p.City != nil, deref(p.City))
	add("age", p.Age != nil, deref(p.Age))
	add("job", p.Job != nil, deref(p.Job))
	add("income", p.Income != nil, deref(p.Income))
	add("marital_status", p.MaritalStatus != nil, deref(p.MaritalStatus))
	add("deal_amount", p.DealAmount != nil, deref(p.DealAmount))
	add("level", p.Level != nil, deref(p.Level))
	add("progress", p.Progress != nil, deref(p.Progress))
	add("main_owner", p.MainOwner != nil, deref(p.MainOwner))
	add("assistant", p.Assistant != nil, deref(p.Assistant))
	add("notes", p.Notes != nil, deref(p.Notes))
	return out
}

type Field struct {
	Column string
	Value  any
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

type CustomerFilter struct {
	Owner string
}

// CustomerStats backs the dashboard view.
type CustomerStats struct {
	Total      int            `json:"total"`
	Owners     int            `json:"owners"`
	Completed  int            `json:"completed"`
	ByLevel    map[string]int `json:"by_level"`
	ByCountry  map[string]int `json:"by_country"`
	DealsByDay map[string]int `json:"deals_by_day"`
}
