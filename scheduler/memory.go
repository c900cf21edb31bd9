package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"nutriplan/logger"

	"go.uber.org/zap"
)

// MemoryScheduler is a thread-safe in-process implementation backed by
// time.Timer. It is the default backend and the one the tests run against.
type MemoryScheduler struct {
	mu      sync.Mutex
	pending map[string]*pendingTask
	handler Handler
	closed  bool
}

type pendingTask struct {
	task  Task
	timer *time.Timer
}

// NewMemory creates a scheduler delivering fired tasks to handler. A nil
// handler drops fired tasks.
func NewMemory(handler Handler) *MemoryScheduler {
	return &MemoryScheduler{
		pending: make(map[string]*pendingTask),
		handler: handler,
	}
}

func (m *MemoryScheduler) Schedule(runAt time.Time, name string, payload map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrSchedulerClosed
	}

	handle := uuid.NewString()
	task := Task{Handle: handle, Name: name, RunAt: runAt, Payload: payload}

	delay := time.Until(runAt)
	if delay < 0 {
		delay = 0
	}
	m.pending[handle] = &pendingTask{
		task:  task,
		timer: time.AfterFunc(delay, func() { m.fire(handle) }),
	}
	logger.Debug("task scheduled",
		zap.String("handle", handle),
		zap.String("name", name),
		zap.Time("run_at", runAt))
	return handle, nil
}

func (m *MemoryScheduler) fire(handle string) {
	m.mu.Lock()
	pt, ok := m.pending[handle]
	if ok {
		delete(m.pending, handle)
	}
	handler := m.handler
	m.mu.Unlock()

	// Lost the race with a cancel: nothing to do.
	if !ok {
		return
	}
	if handler != nil {
		handler(pt.task)
	}
}

func (m *MemoryScheduler) CancelByPayload(key, value string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for handle, pt := range m.pending {
		if pt.task.Payload[key] == value {
			pt.timer.Stop()
			delete(m.pending, handle)
			n++
		}
	}
	return n, nil
}

func (m *MemoryScheduler) TasksByPayload(key, value string) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Task
	for _, pt := range m.pending {
		if pt.task.Payload[key] == value {
			out = append(out, pt.task)
		}
	}
	return out, nil
}

// Close stops every pending timer. Tasks already firing still reach the
// handler.
func (m *MemoryScheduler) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for handle, pt := range m.pending {
		pt.timer.Stop()
		delete(m.pending, handle)
	}
}
