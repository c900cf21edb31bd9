package models

import "gorm.io/gorm"

// Dish is the catalog entry meals snapshot from. Catalog CRUD lives in the
// admin surface; the planner only reads it when a dish is added to a meal.
type Dish struct {
	gorm.Model
	Name     string `gorm:"not null"`
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
}
