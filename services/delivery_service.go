package services

import (
	"strconv"

	"nutriplan/logger"
	"nutriplan/models"
	"nutriplan/scheduler"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeliveryService is the scheduled task's execution handler: when a task
// fires it walks the reminder through pending → sent and pushes the message
// out. The engine core only guarantees a task is scheduled; everything in
// this file is delivery.
type DeliveryService struct {
	db   *gorm.DB
	push *PushService
	hub  *RealtimeHub
}

func NewDeliveryService(db *gorm.DB, push *PushService, hub *RealtimeHub) *DeliveryService {
	return &DeliveryService{db: db, push: push, hub: hub}
}

// HandleTask is installed as the scheduler's Handler.
func (d *DeliveryService) HandleTask(task scheduler.Task) {
	if task.Name != scheduler.TaskReminderFire {
		return
	}
	reminderID := parseID(task.Payload[scheduler.KeyReminderID])
	userID := parseID(task.Payload[scheduler.KeyUserID])
	message := task.Payload[scheduler.KeyMessage]

	var rem models.Reminder
	if err := d.db.First(&rem, reminderID).Error; err != nil {
		// Reminder removed after the task was scheduled; stale fire, drop it.
		return
	}
	if rem.Status != models.ReminderScheduled {
		return
	}

	rem.Status = models.ReminderPending
	if err := d.db.Save(&rem).Error; err != nil {
		logger.Error("reminder fire: status update failed",
			zap.Uint("reminder_id", rem.ID), zap.Error(err))
		return
	}

	if d.push != nil {
		d.push.PushToUser(userID, "Meal reminder", message, map[string]string{
			"reminderId": task.Payload[scheduler.KeyReminderID],
		})
	}
	if d.hub != nil {
		d.hub.BroadcastReminder(userID, map[string]any{
			"kind":     "reminder.fired",
			"reminder": rem,
			"message":  message,
		})
	}

	rem.Status = models.ReminderSent
	rem.TaskHandle = ""
	if err := d.db.Save(&rem).Error; err != nil {
		logger.Error("reminder fire: final status update failed",
			zap.Uint("reminder_id", rem.ID), zap.Error(err))
	}
}

func parseID(s string) uint {
	n, _ := strconv.ParseUint(s, 10, 64)
	return uint(n)
}
