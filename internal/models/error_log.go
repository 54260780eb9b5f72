package models

import "time"

// ErrorLog records a non-fatal runtime anomaly so a detached daemon
// leaves a trace the operator can inspect later. Append-only; pruned
// together with closed intervals.
type ErrorLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Component string    `gorm:"not null;index" json:"component"`
	Message   string    `gorm:"not null" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
