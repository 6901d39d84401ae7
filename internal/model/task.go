package model

import "time"

type Task struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Deadline    *time.Time `json:"deadline"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
}
