package services

import (
	"fmt"
	"testing"
	"time"

	"nutriplan/config"
	"nutriplan/models"
	"nutriplan/scheduler"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database with the production schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db        *gorm.DB
	sched     *scheduler.MemoryScheduler
	reminders *ReminderService
	meals     *MealService
	plans     *PlanService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	sched := scheduler.NewMemory(nil)
	t.Cleanup(sched.Close)

	rem := NewReminderService(db, sched)
	meals := NewMealService(db, rem)
	return &fixture{
		db:        db,
		sched:     sched,
		reminders: rem,
		meals:     meals,
		plans:     NewPlanService(db, rem, meals),
	}
}

func (f *fixture) user(t *testing.T, role string, professionalID *uint) *models.User {
	t.Helper()
	u := &models.User{
		Email:          uuid.NewString() + "@example.com",
		Password:       "x",
		Role:           role,
		ProfessionalID: professionalID,
	}
	if err := f.db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) dish(t *testing.T, name string, calories float64) *models.Dish {
	t.Helper()
	d := &models.Dish{Name: name, Calories: calories}
	if err := f.db.Create(d).Error; err != nil {
		t.Fatalf("create dish: %v", err)
	}
	return d
}

func (f *fixture) days(t *testing.T, planID uint) []models.MealDay {
	t.Helper()
	var days []models.MealDay
	if err := f.db.Where("plan_id = ?", planID).Order("date ASC").Find(&days).Error; err != nil {
		t.Fatalf("load days: %v", err)
	}
	return days
}

func (f *fixture) liveTasks(t *testing.T, reminderID uint) int {
	t.Helper()
	tasks, err := f.sched.TasksByPayload(scheduler.KeyReminderID, formatID(reminderID))
	if err != nil {
		t.Fatalf("tasks by payload: %v", err)
	}
	return len(tasks)
}

func futureStart() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 2)
}

func count[T any](t *testing.T, db *gorm.DB, where string, args ...any) int64 {
	t.Helper()
	var model T
	var n int64
	if err := db.Model(&model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
