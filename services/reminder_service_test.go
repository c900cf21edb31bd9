package services

import (
	"testing"
	"time"

	"nutriplan/models"
)

// seedMeal creates a custom plan with one meal carrying the given dishes and
// returns the pieces the sync operates on.
func seedMeal(t *testing.T, f *fixture, dishIDs []uint) (*models.User, *models.MealPlan, *models.MealDay, *models.Meal) {
	t.Helper()
	owner := f.user(t, models.RoleUser, nil)
	plan, err := f.plans.CreatePlan(CreatePlanRequest{
		Title: "Plan", Kind: models.PlanKindCustom, Duration: 2, StartDate: futureStart(),
	}, owner.ID)
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	day := f.days(t, plan.ID)[0]
	meal, err := f.meals.AddMeal(plan.ID, day.ID, MealRequest{
		MealTime: "07:00", MealName: "Breakfast", DishIDs: dishIDs,
	}, owner.ID)
	if err != nil {
		t.Fatalf("AddMeal: %v", err)
	}
	return owner, plan, &day, meal
}

func TestSyncHealsDuplicatedReminders(t *testing.T) {
	f := newFixture(t)
	dish := f.dish(t, "Toast", 120)
	owner, plan, day, meal := seedMeal(t, f, []uint{dish.ID})

	// Simulate the historical drift: extra reminders for the same key, each
	// with its own live task.
	for i := 0; i < 2; i++ {
		dup := models.Reminder{
			UserID: owner.ID, PlanID: plan.ID, DayID: day.ID, MealID: meal.ID,
			Message: "stale", RemindTime: time.Now().Add(time.Hour),
			IsActive: true, Status: models.ReminderScheduled,
		}
		if err := f.db.Create(&dup).Error; err != nil {
			t.Fatal(err)
		}
		if _, err := f.sched.Schedule(dup.RemindTime, "reminder.fire", map[string]string{
			"reminderId": formatID(dup.ID),
		}); err != nil {
			t.Fatal(err)
		}
	}
	if n := count[models.Reminder](t, f.db, "plan_id = ?", plan.ID); n != 3 {
		t.Fatalf("seeded %d reminders, want 3", n)
	}

	// Any dish mutation converges the key back to one reminder, one task.
	if _, err := f.meals.AddDishes(plan.ID, day.ID, meal.ID, []uint{dish.ID}, owner.ID, owner.ID); err != nil {
		t.Fatalf("AddDishes: %v", err)
	}

	var rems []models.Reminder
	if err := f.db.Where("plan_id = ? AND day_id = ? AND meal_id = ?", plan.ID, day.ID, meal.ID).Find(&rems).Error; err != nil {
		t.Fatal(err)
	}
	if len(rems) != 1 {
		t.Fatalf("%d reminders after heal, want 1", len(rems))
	}
	if got := f.liveTasks(t, rems[0].ID); got != 1 {
		t.Fatalf("surviving reminder has %d live tasks, want 1", got)
	}
}

func TestEmptyMealConvergence(t *testing.T) {
	f := newFixture(t)
	apple := f.dish(t, "Apple", 52)
	yogurt := f.dish(t, "Yogurt", 90)
	owner, plan, day, meal := seedMeal(t, f, []uint{apple.ID, yogurt.ID})

	// Drifted duplicate present before the final removal.
	dup := models.Reminder{
		UserID: owner.ID, PlanID: plan.ID, DayID: day.ID, MealID: meal.ID,
		Message: "stale", RemindTime: time.Now().Add(time.Hour),
		IsActive: true, Status: models.ReminderScheduled,
	}
	if err := f.db.Create(&dup).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := f.meals.RemoveDish(plan.ID, day.ID, meal.ID, apple.ID, owner.ID); err != nil {
		t.Fatalf("remove first dish: %v", err)
	}
	if _, err := f.meals.RemoveDish(plan.ID, day.ID, meal.ID, yogurt.ID, owner.ID); err != nil {
		t.Fatalf("remove last dish: %v", err)
	}

	if n := count[models.Reminder](t, f.db, "meal_id = ?", meal.ID); n != 0 {
		t.Fatalf("%d reminders left on empty meal", n)
	}
	if n := count[models.MealTracking](t, f.db, "meal_id = ?", meal.ID); n != 0 {
		t.Fatalf("%d trackings left on empty meal", n)
	}

	// Re-adding one dish creates exactly one fresh reminder, not two.
	if _, err := f.meals.AddDishes(plan.ID, day.ID, meal.ID, []uint{apple.ID}, owner.ID, owner.ID); err != nil {
		t.Fatalf("re-add dish: %v", err)
	}
	if n := count[models.Reminder](t, f.db, "meal_id = ?", meal.ID); n != 1 {
		t.Fatalf("%d reminders after re-add, want 1", n)
	}
}

func TestSyncMealRecomputesMessageAndTime(t *testing.T) {
	f := newFixture(t)
	apple := f.dish(t, "Apple", 52)
	owner, plan, day, meal := seedMeal(t, f, []uint{apple.ID})

	var rem models.Reminder
	if err := f.db.Where("meal_id = ?", meal.ID).First(&rem).Error; err != nil {
		t.Fatal(err)
	}
	if rem.Message != "Time for Breakfast: Apple" {
		t.Fatalf("message = %q", rem.Message)
	}

	banana := f.dish(t, "Banana", 89)
	if _, err := f.meals.AddDishes(plan.ID, day.ID, meal.ID, []uint{banana.ID}, owner.ID, owner.ID); err != nil {
		t.Fatal(err)
	}

	// Same row, refreshed projection.
	var after models.Reminder
	if err := f.db.Where("meal_id = ?", meal.ID).First(&after).Error; err != nil {
		t.Fatal(err)
	}
	if after.ID != rem.ID {
		t.Fatalf("reminder was replaced, want in-place update")
	}
	if after.Message != "Time for Breakfast: Apple, Banana" {
		t.Fatalf("message = %q", after.Message)
	}

	wantFire := time.Date(day.Date.Year(), day.Date.Month(), day.Date.Day(), 7, 0, 0, 0, time.UTC)
	if !after.RemindTime.Equal(wantFire) {
		t.Fatalf("RemindTime = %v, want %v", after.RemindTime, wantFire)
	}
}

func TestSyncRepeatedCallsKeepOneTask(t *testing.T) {
	f := newFixture(t)
	dish := f.dish(t, "Nuts", 200)
	owner, plan, day, meal := seedMeal(t, f, []uint{dish.ID})

	// Re-running the sync from scratch must never grow the task set.
	var fresh models.Meal
	if err := f.db.Preload("Dishes").First(&fresh, meal.ID).Error; err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := f.reminders.SyncMeal(owner.ID, plan, day, &fresh); err != nil {
			t.Fatalf("sync %d: %v", i, err)
		}
	}

	var rem models.Reminder
	if err := f.db.Where("meal_id = ?", meal.ID).First(&rem).Error; err != nil {
		t.Fatal(err)
	}
	if got := f.liveTasks(t, rem.ID); got != 1 {
		t.Fatalf("live tasks = %d after repeated syncs, want 1", got)
	}
	if rem.TaskHandle == "" {
		t.Fatal("task handle not stored")
	}
}
