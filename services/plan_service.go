package services

import (
	"errors"
	"fmt"
	"time"

	"nutriplan/logger"
	"nutriplan/models"
	"nutriplan/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlanService owns the plan lifecycle: creation with day/meal
// materialization, the pause/block/price transitions and the cascade delete.
type PlanService struct {
	db        *gorm.DB
	reminders *ReminderService
	meals     *MealService
}

func NewPlanService(db *gorm.DB, reminders *ReminderService, meals *MealService) *PlanService {
	return &PlanService{db: db, reminders: reminders, meals: meals}
}

type CreatePlanRequest struct {
	Title     string        `json:"title"`
	OwnerID   uint          `json:"owner_id"` // 0 means the caller authors for themselves
	Kind      string        `json:"kind"`     // "fixed" | "custom"
	Duration  int           `json:"duration"` // days
	StartDate time.Time     `json:"start_date"`
	Price     float64       `json:"price"`
	Template  []MealRequest `json:"template"` // applied to every day of a fixed plan
}

// CreatePlan validates the request and materializes the day range. Fixed
// plans additionally get every meal created from the template immediately;
// custom plans start with empty days.
//
// A plan authored by someone other than its owner starts blocked until
// payment clears it.
func (s *PlanService) CreatePlan(req CreatePlanRequest, callerID uint) (*models.MealPlan, error) {
	if req.Duration < 1 {
		return nil, fmt.Errorf("%w: duration must be at least 1 day", ErrInvalidState)
	}
	if req.Kind != models.PlanKindFixed && req.Kind != models.PlanKindCustom {
		return nil, fmt.Errorf("%w: unknown plan kind %q", ErrInvalidState, req.Kind)
	}
	if req.Kind == models.PlanKindFixed && len(req.Template) == 0 {
		return nil, fmt.Errorf("%w: fixed plan needs a meal template", ErrInvalidState)
	}
	for _, tmpl := range req.Template {
		if _, err := time.Parse("15:04", tmpl.MealTime); err != nil {
			return nil, fmt.Errorf("%w: template meal_time must be HH:MM", ErrInvalidState)
		}
	}

	ownerID := req.OwnerID
	if ownerID == 0 {
		ownerID = callerID
	}
	start := req.StartDate.Truncate(24 * time.Hour)

	plan := &models.MealPlan{
		Title:     req.Title,
		UserID:    ownerID,
		CreatorID: callerID,
		Kind:      req.Kind,
		Duration:  req.Duration,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, req.Duration-1), // always derived
		Price:     req.Price,
		IsBlock:   ownerID != callerID, // locked until payment when authored for someone else
	}
	if err := s.db.Create(plan).Error; err != nil {
		return nil, err
	}

	days := make([]models.MealDay, 0, req.Duration)
	for i := 0; i < req.Duration; i++ {
		days = append(days, models.MealDay{
			PlanID: plan.ID,
			Date:   start.AddDate(0, 0, i),
		})
	}
	if err := s.db.Create(&days).Error; err != nil {
		return nil, err
	}

	var warn error
	if req.Kind == models.PlanKindFixed {
		for _, day := range days {
			for _, tmpl := range req.Template {
				if _, err := s.meals.AddMeal(plan.ID, day.ID, tmpl, callerID); err != nil {
					if errors.Is(err, ErrSchedulerUnavailable) {
						warn = err
						continue
					}
					return nil, err
				}
			}
		}
	}
	return plan, warn
}

// PlanView is the read projection: the plan with its days and their meals.
type PlanView struct {
	models.MealPlan
	Days []DayView `json:"days"`
}

type DayView struct {
	models.MealDay
	Meals []models.Meal `json:"meals"`
}

func (s *PlanService) GetPlan(planID, callerID uint) (*PlanView, error) {
	var plan models.MealPlan
	if err := s.db.First(&plan, planID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	if plan.IsDelete {
		return nil, ErrNotFound
	}
	if err := authorizeRead(s.db, &plan, callerID); err != nil {
		return nil, err
	}

	var days []models.MealDay
	if err := s.db.Where("plan_id = ?", plan.ID).Order("date ASC").Find(&days).Error; err != nil {
		return nil, err
	}
	view := &PlanView{MealPlan: plan, Days: make([]DayView, 0, len(days))}
	for _, day := range days {
		var meals []models.Meal
		if err := s.db.
			Preload("Dishes").
			Where("day_id = ?", day.ID).
			Order("meal_time ASC").
			Find(&meals).Error; err != nil {
			return nil, err
		}
		view.Days = append(view.Days, DayView{MealDay: day, Meals: meals})
	}
	return view, nil
}

// ListPlans returns the caller's plans: owned, authored, and — for a
// professional — the plans of every user assigned to them.
func (s *PlanService) ListPlans(callerID uint, page, limit int) ([]models.MealPlan, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var caller models.User
	if err := s.db.First(&caller, callerID).Error; err != nil {
		return nil, notFoundOr(err)
	}

	q := s.db.Where("is_delete = ?", false)
	if caller.IsProfessional() {
		assigned := s.db.Model(&models.User{}).Select("id").Where("professional_id = ?", callerID)
		q = q.Where("user_id = ? OR creator_id = ? OR user_id IN (?)", callerID, callerID, assigned)
	} else {
		q = q.Where("user_id = ? OR creator_id = ?", callerID, callerID)
	}

	var plans []models.MealPlan
	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&plans).Error
	return plans, err
}

// SetPause toggles isPause and runs the plan-wide reminder sweep. Setting
// the flag to its current value is a no-op.
func (s *PlanService) SetPause(planID uint, paused bool, callerID uint) (*models.MealPlan, error) {
	plan, err := s.mutablePlan(planID, callerID)
	if err != nil {
		return nil, err
	}
	if plan.IsPause == paused {
		return plan, nil
	}
	plan.IsPause = paused
	if err := s.db.Save(plan).Error; err != nil {
		return nil, err
	}
	return plan, s.reminders.SyncPlan(plan)
}

// SetBlock flips the payment lock. Unblocking (the payment integration
// point) marks the plan paid and runs the same sweep as resume; blocking
// sweeps like pause. The owner gets a best-effort email notice.
func (s *PlanService) SetBlock(planID uint, blocked bool, callerID uint) (*models.MealPlan, error) {
	plan, err := s.mutablePlan(planID, callerID)
	if err != nil {
		return nil, err
	}
	if plan.IsBlock == blocked {
		return plan, nil
	}
	plan.IsBlock = blocked
	if !blocked {
		plan.IsPaid = true
	}
	if err := s.db.Save(plan).Error; err != nil {
		return nil, err
	}

	var owner models.User
	if err := s.db.First(&owner, plan.UserID).Error; err == nil {
		if mailErr := utils.SendPlanBlockNotice(owner.Email, plan.Title, blocked); mailErr != nil {
			logger.Warn("block notice email failed",
				zap.Uint("plan_id", plan.ID), zap.Error(mailErr))
		}
	}
	return plan, s.reminders.SyncPlan(plan)
}

func (s *PlanService) SetPrice(planID uint, price float64, callerID uint) (*models.MealPlan, error) {
	if price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidState)
	}
	plan, err := s.mutablePlan(planID, callerID)
	if err != nil {
		return nil, err
	}
	plan.Price = price
	if err := s.db.Save(plan).Error; err != nil {
		return nil, err
	}
	return plan, nil
}

// DeletePlan soft-deletes the plan after tearing down everything under it,
// children before parents: reminder tasks, reminders, trackings, meals,
// days, then the plan flag. The database steps run in one transaction; a
// partial cascade is a fatal inconsistency, not something to paper over.
func (s *PlanService) DeletePlan(planID, callerID uint) error {
	plan, err := s.mutablePlan(planID, callerID)
	if err != nil {
		return err
	}

	var reminderIDs []uint
	if err := s.db.Model(&models.Reminder{}).
		Where("plan_id = ?", plan.ID).
		Pluck("id", &reminderIDs).Error; err != nil {
		return fmt.Errorf("%w: collecting reminders: %v", ErrCascadeFailure, err)
	}

	// Task cancellation is best-effort and idempotent; a failure here is
	// logged, the row teardown still decides the outcome.
	var warn error
	for _, id := range reminderIDs {
		if cErr := s.reminders.cancelTasks(id); cErr != nil {
			warn = cErr
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", plan.ID).Delete(&models.Reminder{}).Error; err != nil {
			return fmt.Errorf("reminders: %w", err)
		}
		if err := tx.Where("plan_id = ?", plan.ID).Delete(&models.MealTracking{}).Error; err != nil {
			return fmt.Errorf("trackings: %w", err)
		}
		var dayIDs []uint
		if err := tx.Model(&models.MealDay{}).
			Where("plan_id = ?", plan.ID).
			Pluck("id", &dayIDs).Error; err != nil {
			return fmt.Errorf("days: %w", err)
		}
		if len(dayIDs) > 0 {
			var mealIDs []uint
			if err := tx.Model(&models.Meal{}).
				Where("day_id IN ?", dayIDs).
				Pluck("id", &mealIDs).Error; err != nil {
				return fmt.Errorf("meals: %w", err)
			}
			if len(mealIDs) > 0 {
				if err := tx.Where("meal_id IN ?", mealIDs).Delete(&models.MealDish{}).Error; err != nil {
					return fmt.Errorf("dishes: %w", err)
				}
				if err := tx.Where("id IN ?", mealIDs).Delete(&models.Meal{}).Error; err != nil {
					return fmt.Errorf("meals: %w", err)
				}
			}
			if err := tx.Where("id IN ?", dayIDs).Delete(&models.MealDay{}).Error; err != nil {
				return fmt.Errorf("days: %w", err)
			}
		}
		plan.IsDelete = true
		return tx.Save(plan).Error
	})
	if err != nil {
		logger.Error("plan cascade failed",
			zap.Uint("plan_id", plan.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrCascadeFailure, err)
	}
	return warn
}

// ListReminders is the diagnostic read over a plan's reminders and their
// bound task state.
func (s *PlanService) ListReminders(planID, callerID uint) ([]ReminderView, error) {
	var plan models.MealPlan
	if err := s.db.First(&plan, planID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	if err := authorizeRead(s.db, &plan, callerID); err != nil {
		return nil, err
	}
	return s.reminders.ListForPlan(plan.ID)
}

func (s *PlanService) mutablePlan(planID, callerID uint) (*models.MealPlan, error) {
	var plan models.MealPlan
	if err := s.db.First(&plan, planID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	// Delete is terminal.
	if plan.IsDelete {
		return nil, fmt.Errorf("%w: plan is deleted", ErrInvalidState)
	}
	if err := authorizeMutation(s.db, &plan, callerID); err != nil {
		return nil, err
	}
	return &plan, nil
}
