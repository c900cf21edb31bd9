package scheduler

import "time"

// Task name and payload keys used by the reminder engine.
const (
	TaskReminderFire = "reminder.fire"

	KeyReminderID = "reminderId"
	KeyUserID     = "userId"
	KeyMessage    = "message"
)

// Task is one delayed execution unit.
type Task struct {
	Handle  string
	Name    string
	RunAt   time.Time
	Payload map[string]string
}

// Handler receives a task when its fire time arrives.
type Handler func(Task)

// Scheduler is the narrow surface the engine needs from a delayed-task
// backend. Any implementation (in-process timers, durable queue, cron store)
// must treat cancellation of a fired or unknown task as a no-op.
type Scheduler interface {
	// Schedule registers a task and returns its handle.
	Schedule(runAt time.Time, name string, payload map[string]string) (string, error)

	// CancelByPayload cancels every pending task whose payload maps key to
	// value and reports how many were cancelled.
	CancelByPayload(key, value string) (int, error)

	// TasksByPayload lists the pending tasks whose payload maps key to value.
	TasksByPayload(key, value string) ([]Task, error)
}
