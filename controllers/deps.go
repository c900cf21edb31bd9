package controllers

import (
	"nutriplan/config"
	"nutriplan/scheduler"
	"nutriplan/services"
)

var sched scheduler.Scheduler

// Init wires the shared scheduler in; services are built per request off
// config.DB.
func Init(s scheduler.Scheduler) {
	sched = s
}

func planService() *services.PlanService {
	rem := services.NewReminderService(config.DB, sched)
	meals := services.NewMealService(config.DB, rem)
	return services.NewPlanService(config.DB, rem, meals)
}

func mealService() *services.MealService {
	rem := services.NewReminderService(config.DB, sched)
	return services.NewMealService(config.DB, rem)
}
