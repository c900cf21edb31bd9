package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PlanKindFixed  = "fixed"
	PlanKindCustom = "custom"
)

// MealPlan is the root aggregate. The four flags are independent: a plan can
// be paused and blocked at the same time. EndDate is always derived from
// StartDate + Duration - 1 and must never be written directly.
type MealPlan struct {
	gorm.Model
	Title     string `gorm:"not null"`
	UserID    uint   `gorm:"index"` // owner
	CreatorID uint   `gorm:"index"` // equals UserID for self-authored plans
	Kind      string `gorm:"size:10"` // "fixed" | "custom"
	Duration  int    // days
	StartDate time.Time
	EndDate   time.Time
	Price     float64

	IsBlock  bool `gorm:"default:false"` // payment-gated lock
	IsPaid   bool `gorm:"default:false"`
	IsPause  bool `gorm:"default:false"`
	IsDelete bool `gorm:"default:false;index"` // soft delete, terminal
}

// RemindersActive reports whether reminders under this plan should carry a
// live scheduled task.
func (p *MealPlan) RemindersActive() bool {
	return !p.IsPause && !p.IsBlock && !p.IsDelete
}

// One calendar date inside a plan. Days are created as a contiguous batch at
// plan creation and only ever removed by the plan cascade.
type MealDay struct {
	gorm.Model
	PlanID uint      `gorm:"index;not null"`
	Date   time.Time `gorm:"not null"`
}
