package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ReminderScheduled = "scheduled"
	ReminderPending   = "pending"
	ReminderSent      = "sent"
	ReminderPaused    = "paused"
	ReminderCancelled = "cancelled"
)

// Reminder is the notification bound to one (user, plan, day, meal) tuple.
// Invariant: at most one row per (plan, day, meal) — the reminder service
// restores this on every sync rather than assuming it holds.
type Reminder struct {
	gorm.Model
	UserID uint `gorm:"index;not null"`
	PlanID uint `gorm:"index;not null"`
	DayID  uint `gorm:"index;not null"`
	MealID uint `gorm:"index;not null"`

	Message    string    `gorm:"type:text"`
	RemindTime time.Time `gorm:"index"`
	TaskHandle string    `gorm:"size:64"` // empty when no task is bound
	IsActive   bool      `gorm:"default:true"`
	Status     string    `gorm:"size:12;default:scheduled"`
}
