package services

import (
	"nutriplan/models"

	"gorm.io/gorm"
)

// CanMutatePlan is the single authorization check shared by every content
// mutation. A caller may mutate iff they are the plan owner, the plan
// creator, or a professional assigned to the owner. A blocked plan narrows
// this further: only owner or creator may bypass the lock, so an assigned
// professional gets ErrLockedPlan rather than access.
//
// assignedProfessionalID is the owner's profile assignment (nil when the
// owner has no professional).
func CanMutatePlan(plan *models.MealPlan, caller *models.User, assignedProfessionalID *uint) error {
	ownerOrCreator := caller.ID == plan.UserID || caller.ID == plan.CreatorID
	if ownerOrCreator {
		return nil
	}
	assigned := caller.IsProfessional() &&
		assignedProfessionalID != nil && *assignedProfessionalID == caller.ID
	if !assigned {
		return ErrForbidden
	}
	if plan.IsBlock {
		return ErrLockedPlan
	}
	return nil
}

// CanReadPlan gates the role-scoped reads: the same three parties, with no
// lock restriction.
func CanReadPlan(plan *models.MealPlan, caller *models.User, assignedProfessionalID *uint) error {
	if caller.ID == plan.UserID || caller.ID == plan.CreatorID {
		return nil
	}
	if caller.IsProfessional() &&
		assignedProfessionalID != nil && *assignedProfessionalID == caller.ID {
		return nil
	}
	return ErrForbidden
}

// authorizeMutation loads the caller and the owner's professional assignment
// and runs the shared guard.
func authorizeMutation(db *gorm.DB, plan *models.MealPlan, callerID uint) error {
	caller, assigned, err := loadCallerAndAssignment(db, plan, callerID)
	if err != nil {
		return err
	}
	return CanMutatePlan(plan, caller, assigned)
}

func authorizeRead(db *gorm.DB, plan *models.MealPlan, callerID uint) error {
	caller, assigned, err := loadCallerAndAssignment(db, plan, callerID)
	if err != nil {
		return err
	}
	return CanReadPlan(plan, caller, assigned)
}

func loadCallerAndAssignment(db *gorm.DB, plan *models.MealPlan, callerID uint) (*models.User, *uint, error) {
	var caller models.User
	if err := db.First(&caller, callerID).Error; err != nil {
		return nil, nil, notFoundOr(err)
	}
	var owner models.User
	if err := db.First(&owner, plan.UserID).Error; err != nil {
		return nil, nil, notFoundOr(err)
	}
	return &caller, owner.ProfessionalID, nil
}
