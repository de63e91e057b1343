package models

import (
	"time"
)

// EventLog records lifecycle activity for the dashboard: transitions applied,
// sweeps that promoted items, generation failures.
type EventLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     string    `gorm:"size:20;not null;index" json:"level"`
	Source    string    `gorm:"size:100;not null;index" json:"source"`
	UserID    string    `gorm:"index;size:64" json:"user_id"`
	ItemID    string    `gorm:"index;size:36" json:"item_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
