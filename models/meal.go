package models

import (
	"gorm.io/gorm"
)

// One Meal (breakfast/lunch/…) inside a MealDay.
type Meal struct {
	gorm.Model
	PlanID   uint   `gorm:"index;not null"`
	DayID    uint   `gorm:"index;not null"`
	MealTime string `gorm:"size:5"` // "HH:MM", 24h
	MealName string
	Dishes   []MealDish `gorm:"foreignKey:MealID"`
}

// MealDish is a snapshot of the catalog dish at the moment it was added —
// later catalog edits do not flow back into existing meals.
type MealDish struct {
	gorm.Model
	MealID   uint `gorm:"index;not null"`
	DishID   uint `gorm:"index;not null"`
	Name     string
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
}
