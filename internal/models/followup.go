package models

import "time"

type Followup struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Author     string    `json:"author"`
	Note       string    `json:"note"`
	NextAction string    `json:"next_action"`
	CreatedAt  time.Time `json:"created_at"`
}
