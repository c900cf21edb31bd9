package models

import "gorm.io/gorm"

// MealTracking is the per-user running total for one meal occurrence.
// Created lazily on the first dish add, recomputed on every dish change,
// removed when the meal goes empty.
type MealTracking struct {
	gorm.Model
	UserID uint `gorm:"index;not null"`
	PlanID uint `gorm:"index;not null"`
	DayID  uint `gorm:"index;not null"`
	MealID uint `gorm:"index;not null"`

	ConsumedCalories float64
	Completed        bool `gorm:"default:false"`
}
