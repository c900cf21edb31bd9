package scheduler

import (
	"testing"
	"time"
)

func TestScheduleFires(t *testing.T) {
	fired := make(chan Task, 1)
	m := NewMemory(func(task Task) { fired <- task })
	defer m.Close()

	handle, err := m.Schedule(time.Now().Add(10*time.Millisecond), TaskReminderFire, map[string]string{
		KeyReminderID: "42",
		KeyMessage:    "eat",
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if handle == "" {
		t.Fatal("empty handle")
	}

	select {
	case task := <-fired:
		if task.Handle != handle {
			t.Fatalf("fired handle %q, want %q", task.Handle, handle)
		}
		if task.Payload[KeyReminderID] != "42" {
			t.Fatalf("payload = %v", task.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task never fired")
	}

	// The fired task is no longer pending.
	tasks, err := m.TasksByPayload(KeyReminderID, "42")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 0 {
		t.Fatalf("%d tasks still pending after fire", len(tasks))
	}
}

func TestCancelByPayload(t *testing.T) {
	m := NewMemory(nil)
	defer m.Close()

	far := time.Now().Add(time.Hour)
	for i := 0; i < 3; i++ {
		if _, err := m.Schedule(far, TaskReminderFire, map[string]string{KeyReminderID: "7"}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := m.Schedule(far, TaskReminderFire, map[string]string{KeyReminderID: "8"}); err != nil {
		t.Fatal(err)
	}

	n, err := m.CancelByPayload(KeyReminderID, "7")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("cancelled %d, want 3", n)
	}

	// Cancelling again is a no-op, not an error.
	n, err = m.CancelByPayload(KeyReminderID, "7")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("second cancel removed %d", n)
	}

	tasks, err := m.TasksByPayload(KeyReminderID, "8")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Fatalf("unrelated task disturbed: %d pending", len(tasks))
	}
}

func TestCancelAfterFireIsNoOp(t *testing.T) {
	fired := make(chan struct{}, 1)
	m := NewMemory(func(Task) { fired <- struct{}{} })
	defer m.Close()

	if _, err := m.Schedule(time.Now(), TaskReminderFire, map[string]string{KeyReminderID: "1"}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("task never fired")
	}

	n, err := m.CancelByPayload(KeyReminderID, "1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("cancel after fire removed %d", n)
	}
}

func TestScheduleAfterClose(t *testing.T) {
	m := NewMemory(nil)
	m.Close()
	if _, err := m.Schedule(time.Now().Add(time.Hour), TaskReminderFire, nil); err != ErrSchedulerClosed {
		t.Fatalf("got %v, want ErrSchedulerClosed", err)
	}
}
