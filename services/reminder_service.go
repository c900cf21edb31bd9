package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"nutriplan/logger"
	"nutriplan/models"
	"nutriplan/scheduler"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReminderService keeps exactly one Reminder and exactly one scheduled task
// per (plan, day, meal) key, no matter how often or how concurrently it is
// invoked. Every entry point re-runs the full convergence sequence instead
// of trusting previously stored state.
type ReminderService struct {
	db    *gorm.DB
	sched scheduler.Scheduler
	loc   *time.Location
}

func NewReminderService(db *gorm.DB, sched scheduler.Scheduler) *ReminderService {
	return &ReminderService{db: db, sched: sched, loc: reminderLocation()}
}

// reminderLocation resolves the fixed reference time zone fire times are
// computed in.
func reminderLocation() *time.Location {
	name := os.Getenv("REMINDER_TZ")
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("bad REMINDER_TZ, falling back to UTC", zap.String("tz", name))
		return time.UTC
	}
	return loc
}

// SyncMeal reconciles the reminder for one meal after its dish list changed.
// meal.Dishes must reflect the current state. Returns the surviving reminder,
// or nil when the meal is empty and no reminder may exist.
//
// A scheduler failure is reported as ErrSchedulerUnavailable but the
// reminder row is already committed; the next sync re-reconciles it.
func (s *ReminderService) SyncMeal(userID uint, plan *models.MealPlan, day *models.MealDay, meal *models.Meal) (*models.Reminder, error) {
	// A meal with nothing to eat must never carry a notification.
	if len(meal.Dishes) == 0 {
		return nil, s.DeleteForMeal(plan.ID, day.ID, meal.ID)
	}

	remindTime, err := s.fireTime(day.Date, meal.MealTime)
	if err != nil {
		return nil, err
	}
	message := reminderMessage(meal)

	rem, err := s.healDuplicates(plan.ID, day.ID, meal.ID)
	if err != nil {
		return nil, err
	}

	if rem == nil {
		rem = &models.Reminder{
			UserID: userID,
			PlanID: plan.ID,
			DayID:  day.ID,
			MealID: meal.ID,
		}
	}
	rem.Message = message
	rem.RemindTime = remindTime
	rem.IsActive = true
	rem.Status = models.ReminderScheduled
	if !plan.RemindersActive() {
		rem.Status = models.ReminderPaused
	}
	if err := s.db.Save(rem).Error; err != nil {
		return nil, err
	}

	if warn := s.reconcileTask(rem, plan.RemindersActive()); warn != nil {
		return rem, warn
	}
	return rem, nil
}

// DeleteForMeal removes every reminder for the key and cancels their tasks.
// Used by the empty-dish guard and by meal removal.
func (s *ReminderService) DeleteForMeal(planID, dayID, mealID uint) error {
	var rems []models.Reminder
	if err := s.db.
		Where("plan_id = ? AND day_id = ? AND meal_id = ?", planID, dayID, mealID).
		Find(&rems).Error; err != nil {
		return err
	}

	var warn error
	for _, r := range rems {
		if err := s.cancelTasks(r.ID); err != nil {
			warn = err
		}
	}
	if err := s.db.
		Where("plan_id = ? AND day_id = ? AND meal_id = ?", planID, dayID, mealID).
		Delete(&models.Reminder{}).Error; err != nil {
		return err
	}
	return warn
}

// SyncPlan runs the plan-wide pause/resume sweep over every reminder under
// the plan. On pause (or block) tasks are cancelled and reminders marked
// paused. On resume, a reminder is rescheduled only if its stored fire time
// is still ahead; one whose time elapsed while paused is marked cancelled,
// not resurrected.
func (s *ReminderService) SyncPlan(plan *models.MealPlan) error {
	var rems []models.Reminder
	if err := s.db.Where("plan_id = ?", plan.ID).Find(&rems).Error; err != nil {
		return err
	}

	active := plan.RemindersActive()
	var warn error
	for i := range rems {
		rem := &rems[i]
		if cErr := s.cancelTasks(rem.ID); cErr != nil {
			warn = cErr
		}
		rem.TaskHandle = ""

		switch {
		case !active:
			rem.Status = models.ReminderPaused
		case rem.RemindTime.After(time.Now()):
			rem.Status = models.ReminderScheduled
			handle, sErr := s.scheduleTask(rem)
			if sErr != nil {
				warn = sErr
			} else {
				rem.TaskHandle = handle
			}
		default:
			rem.Status = models.ReminderCancelled
			rem.IsActive = false
		}

		if err := s.db.Save(rem).Error; err != nil {
			return err
		}
	}
	return warn
}

// ReminderView is the diagnostic projection exposed by listReminders: the
// stored row plus how many live tasks currently reference it.
type ReminderView struct {
	models.Reminder
	LiveTasks int `json:"live_tasks"`
}

func (s *ReminderService) ListForPlan(planID uint) ([]ReminderView, error) {
	var rems []models.Reminder
	if err := s.db.
		Where("plan_id = ?", planID).
		Order("remind_time ASC").
		Find(&rems).Error; err != nil {
		return nil, err
	}

	views := make([]ReminderView, 0, len(rems))
	for _, r := range rems {
		live := 0
		tasks, err := s.sched.TasksByPayload(scheduler.KeyReminderID, formatID(r.ID))
		if err == nil {
			live = len(tasks)
		}
		views = append(views, ReminderView{Reminder: r, LiveTasks: live})
	}
	return views, nil
}

// healDuplicates restores the at-most-one invariant for a key: when drift
// has produced several reminders, the most recently created survives and the
// rest are torn down, tasks first.
func (s *ReminderService) healDuplicates(planID, dayID, mealID uint) (*models.Reminder, error) {
	var rems []models.Reminder
	if err := s.db.
		Where("plan_id = ? AND day_id = ? AND meal_id = ?", planID, dayID, mealID).
		Order("created_at DESC, id DESC").
		Find(&rems).Error; err != nil {
		return nil, err
	}
	if len(rems) == 0 {
		return nil, nil
	}

	for _, dup := range rems[1:] {
		if err := s.cancelTasks(dup.ID); err != nil {
			logger.Warn("task cancel failed while healing duplicate reminder",
				zap.Uint("reminder_id", dup.ID), zap.Error(err))
		}
		if err := s.db.Delete(&models.Reminder{}, dup.ID).Error; err != nil {
			return nil, err
		}
	}
	if len(rems) > 1 {
		logger.Warn("healed duplicated reminders",
			zap.Uint("plan_id", planID),
			zap.Uint("meal_id", mealID),
			zap.Int("removed", len(rems)-1))
	}
	return &rems[0], nil
}

// reconcileTask makes the scheduler agree with the reminder row: all stale
// tasks for the id are cancelled unconditionally, then one fresh task is
// scheduled when the plan is active.
func (s *ReminderService) reconcileTask(rem *models.Reminder, active bool) error {
	if err := s.cancelTasks(rem.ID); err != nil {
		return err
	}

	rem.TaskHandle = ""
	if active {
		handle, err := s.scheduleTask(rem)
		if err != nil {
			// The reminder row is the source of truth; the task is a
			// best-effort side effect that self-heals on the next sync.
			if dbErr := s.db.Save(rem).Error; dbErr != nil {
				return dbErr
			}
			return err
		}
		rem.TaskHandle = handle
	}
	return s.db.Save(rem).Error
}

func (s *ReminderService) scheduleTask(rem *models.Reminder) (string, error) {
	handle, err := s.sched.Schedule(rem.RemindTime, scheduler.TaskReminderFire, map[string]string{
		scheduler.KeyReminderID: formatID(rem.ID),
		scheduler.KeyUserID:     formatID(rem.UserID),
		scheduler.KeyMessage:    rem.Message,
	})
	if err != nil {
		logger.Warn("reminder task scheduling failed",
			zap.Uint("reminder_id", rem.ID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrSchedulerUnavailable, err)
	}
	return handle, nil
}

func (s *ReminderService) cancelTasks(reminderID uint) error {
	if _, err := s.sched.CancelByPayload(scheduler.KeyReminderID, formatID(reminderID)); err != nil {
		logger.Warn("reminder task cancel failed",
			zap.Uint("reminder_id", reminderID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrSchedulerUnavailable, err)
	}
	return nil
}

// fireTime combines a day's date with a meal's "HH:MM" in the reference
// time zone.
func (s *ReminderService) fireTime(date time.Time, mealTime string) (time.Time, error) {
	t, err := time.Parse("15:04", mealTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad meal time %q", ErrInvalidState, mealTime)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0, s.loc), nil
}

// reminderMessage is a projection of the current meal state, recomputed on
// every sync rather than stored.
func reminderMessage(meal *models.Meal) string {
	names := make([]string, 0, len(meal.Dishes))
	for _, d := range meal.Dishes {
		names = append(names, d.Name)
	}
	return fmt.Sprintf("Time for %s: %s", meal.MealName, strings.Join(names, ", "))
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
