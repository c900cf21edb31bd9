package models

import (
	"gorm.io/gorm"
)

const (
	RoleUser         = "user"
	RoleProfessional = "professional"
)

type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"`
	FullName string
	Role     string `gorm:"size:20;default:user"` // "user" | "professional"

	// Professional assigned to this user, if any. The authorization guard
	// reads this off the plan owner's profile, never off the plan itself.
	ProfessionalID *uint `gorm:"index"`
}

func (u *User) IsProfessional() bool {
	return u.Role == RoleProfessional
}
