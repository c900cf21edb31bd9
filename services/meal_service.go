package services

import (
	"errors"
	"fmt"
	"time"

	"nutriplan/models"

	"gorm.io/gorm"
)

// MealService owns meal and dish mutations inside a plan. Every mutation
// runs the shared authorization guard, then hands the meal's new state to
// the reminder service.
//
// Methods may return an error wrapping ErrSchedulerUnavailable after the
// database change has already committed; callers treat that as a warning on
// an otherwise successful mutation, never as a rollback.
type MealService struct {
	db        *gorm.DB
	reminders *ReminderService
}

func NewMealService(db *gorm.DB, reminders *ReminderService) *MealService {
	return &MealService{db: db, reminders: reminders}
}

type MealRequest struct {
	MealTime string `json:"meal_time"` // "HH:MM"
	MealName string `json:"meal_name"`
	DishIDs  []uint `json:"dish_ids"`
}

func (s *MealService) AddMeal(planID, dayID uint, req MealRequest, callerID uint) (*models.Meal, error) {
	plan, day, err := s.mutablePlanDay(planID, dayID, callerID)
	if err != nil {
		return nil, err
	}
	if _, err := time.Parse("15:04", req.MealTime); err != nil {
		return nil, fmt.Errorf("%w: meal_time must be HH:MM", ErrInvalidState)
	}

	meal := &models.Meal{
		PlanID:   plan.ID,
		DayID:    day.ID,
		MealTime: req.MealTime,
		MealName: req.MealName,
	}
	if err := s.db.Create(meal).Error; err != nil {
		return nil, err
	}
	if len(req.DishIDs) == 0 {
		return meal, nil
	}
	return s.AddDishes(planID, dayID, meal.ID, req.DishIDs, plan.UserID, callerID)
}

// RemoveMeal deletes a meal with its dishes, reminders and tracking.
func (s *MealService) RemoveMeal(planID, dayID, mealID, callerID uint) error {
	_, _, err := s.mutablePlanDay(planID, dayID, callerID)
	if err != nil {
		return err
	}
	var meal models.Meal
	if err := s.db.
		Where("id = ? AND plan_id = ? AND day_id = ?", mealID, planID, dayID).
		First(&meal).Error; err != nil {
		return notFoundOr(err)
	}

	warn := s.reminders.DeleteForMeal(planID, dayID, mealID)
	if warn != nil && !errors.Is(warn, ErrSchedulerUnavailable) {
		return warn
	}
	if err := s.db.
		Where("plan_id = ? AND day_id = ? AND meal_id = ?", planID, dayID, mealID).
		Delete(&models.MealTracking{}).Error; err != nil {
		return err
	}
	if err := s.db.Where("meal_id = ?", mealID).Delete(&models.MealDish{}).Error; err != nil {
		return err
	}
	if err := s.db.Delete(&models.Meal{}, mealID).Error; err != nil {
		return err
	}
	return warn
}

// AddDishes snapshots the named catalog dishes onto the meal, recomputes the
// tracking total for userID and re-synchronizes the reminder.
func (s *MealService) AddDishes(planID, dayID, mealID uint, dishIDs []uint, userID, callerID uint) (*models.Meal, error) {
	plan, day, err := s.mutablePlanDay(planID, dayID, callerID)
	if err != nil {
		return nil, err
	}
	var meal models.Meal
	if err := s.db.
		Where("id = ? AND plan_id = ? AND day_id = ?", mealID, planID, dayID).
		First(&meal).Error; err != nil {
		return nil, notFoundOr(err)
	}

	for _, dishID := range dishIDs {
		var dish models.Dish
		if err := s.db.First(&dish, dishID).Error; err != nil {
			return nil, notFoundOr(err)
		}
		// Snapshot, not reference: later catalog edits must not leak in.
		md := &models.MealDish{
			MealID:   meal.ID,
			DishID:   dish.ID,
			Name:     dish.Name,
			Calories: dish.Calories,
			Protein:  dish.Protein,
			Carbs:    dish.Carbs,
			Fat:      dish.Fat,
		}
		if err := s.db.Create(md).Error; err != nil {
			return nil, err
		}
	}

	return s.afterDishChange(plan, day, &meal, userID)
}

// RemoveDish drops one snapshot from the meal. Removing a dish that is not
// present is an invalid state, not a silent success.
func (s *MealService) RemoveDish(planID, dayID, mealID, dishID, callerID uint) (*models.Meal, error) {
	plan, day, err := s.mutablePlanDay(planID, dayID, callerID)
	if err != nil {
		return nil, err
	}
	var meal models.Meal
	if err := s.db.
		Where("id = ? AND plan_id = ? AND day_id = ?", mealID, planID, dayID).
		First(&meal).Error; err != nil {
		return nil, notFoundOr(err)
	}

	var snap models.MealDish
	if err := s.db.
		Where("meal_id = ? AND dish_id = ?", mealID, dishID).
		Order("id ASC").
		First(&snap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: dish not on meal", ErrInvalidState)
		}
		return nil, err
	}
	if err := s.db.Delete(&models.MealDish{}, snap.ID).Error; err != nil {
		return nil, err
	}

	// Keep tracking/reminder attribution stable across removals.
	userID := plan.UserID
	var rem models.Reminder
	if err := s.db.
		Where("plan_id = ? AND day_id = ? AND meal_id = ?", planID, dayID, mealID).
		First(&rem).Error; err == nil {
		userID = rem.UserID
	}
	return s.afterDishChange(plan, day, &meal, userID)
}

// afterDishChange reloads the meal, recomputes tracking and syncs the
// reminder. It is the single funnel every dish mutation ends in, which is
// what makes repeated or concurrent mutations converge.
func (s *MealService) afterDishChange(plan *models.MealPlan, day *models.MealDay, meal *models.Meal, userID uint) (*models.Meal, error) {
	var fresh models.Meal
	if err := s.db.Preload("Dishes").First(&fresh, meal.ID).Error; err != nil {
		return nil, notFoundOr(err)
	}

	if err := s.recomputeTracking(userID, plan.ID, day.ID, &fresh); err != nil {
		return nil, err
	}
	_, warn := s.reminders.SyncMeal(userID, plan, day, &fresh)
	if warn != nil && !errors.Is(warn, ErrSchedulerUnavailable) {
		return nil, warn
	}
	return &fresh, warn
}

// recomputeTracking rebuilds the consumed-calories total from the dish
// snapshots. An empty meal loses its tracking rows entirely.
func (s *MealService) recomputeTracking(userID, planID, dayID uint, meal *models.Meal) error {
	if len(meal.Dishes) == 0 {
		return s.db.
			Where("plan_id = ? AND day_id = ? AND meal_id = ?", planID, dayID, meal.ID).
			Delete(&models.MealTracking{}).Error
	}

	total := 0.0
	for _, d := range meal.Dishes {
		total += d.Calories
	}

	var tracking models.MealTracking
	err := s.db.
		Where("user_id = ? AND plan_id = ? AND day_id = ? AND meal_id = ?",
			userID, planID, dayID, meal.ID).
		First(&tracking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tracking = models.MealTracking{
			UserID: userID,
			PlanID: planID,
			DayID:  dayID,
			MealID: meal.ID,
		}
	} else if err != nil {
		return err
	}
	tracking.ConsumedCalories = total
	return s.db.Save(&tracking).Error
}

// mutablePlanDay loads the plan and day, rejects mutations of deleted plans
// and runs the shared guard.
func (s *MealService) mutablePlanDay(planID, dayID, callerID uint) (*models.MealPlan, *models.MealDay, error) {
	var plan models.MealPlan
	if err := s.db.First(&plan, planID).Error; err != nil {
		return nil, nil, notFoundOr(err)
	}
	if plan.IsDelete {
		return nil, nil, fmt.Errorf("%w: plan is deleted", ErrInvalidState)
	}
	if err := authorizeMutation(s.db, &plan, callerID); err != nil {
		return nil, nil, err
	}
	var day models.MealDay
	if err := s.db.Where("id = ? AND plan_id = ?", dayID, planID).First(&day).Error; err != nil {
		return nil, nil, notFoundOr(err)
	}
	return &plan, &day, nil
}
