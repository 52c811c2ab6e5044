// Package alarm keeps at most one pending one-shot alarm per task id and
// delivers a notification payload when it fires.
package alarm

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vthunder/tasktracker/internal/clock"
	"github.com/vthunder/tasktracker/internal/logging"
	"github.com/vthunder/tasktracker/internal/notify"
	"github.com/vthunder/tasktracker/internal/tasks"
)

// Lead is how long before the due date a NOTIFICATION alarm fires
const Lead = 60 * time.Second

// ErrExactAlarmDenied is returned when the permission check refuses a
// schedule request. The request is dropped, not retried.
var ErrExactAlarmDenied = errors.New("exact alarm permission denied")

// FireTime returns when task's alarm should fire. ok is false for tasks
// that never get an alarm.
func FireTime(task tasks.Task) (at time.Time, ok bool) {
	switch task.AlarmType {
	case tasks.AlarmNotification:
		return task.Due().Add(-Lead), true
	default:
		return time.Time{}, false
	}
}

// Pending describes an armed alarm
type Pending struct {
	TaskID int
	Title  string
	FireAt time.Time
}

type entry struct {
	payload notify.Payload
	fireAt  time.Time
	timer   clock.Timer
}

// Scheduler owns the timer table
type Scheduler struct {
	clock     clock.Clock
	deliver   func(notify.Payload)
	permitted func() bool

	mu      sync.Mutex
	pending map[int]*entry
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithPermission installs the exact-alarm permission check. Without it
// every request is allowed.
func WithPermission(permitted func() bool) Option {
	return func(s *Scheduler) {
		s.permitted = permitted
	}
}

// New creates a scheduler that hands fired payloads to deliver
func New(c clock.Clock, deliver func(notify.Payload), opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:     c,
		deliver:   deliver,
		permitted: func() bool { return true },
		pending:   make(map[int]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule arms task's alarm, replacing any alarm pending for the same
// id. NONE tasks are ignored. A fire time already in the past is handed
// to the clock with no delay, so delivery never runs under the caller's
// locks.
func (s *Scheduler) Schedule(task tasks.Task) error {
	fireAt, ok := FireTime(task)
	if !ok {
		return nil
	}
	if !s.permitted() {
		logging.Warn("alarm", "exact alarms not permitted, dropping alarm for task %d (%s)",
			task.ID, logging.Truncate(task.Title, 40))
		return fmt.Errorf("task %d: %w", task.ID, ErrExactAlarmDenied)
	}

	payload := notify.NewPayload(task, notify.KindAlarm, notify.ActionTaskDue)
	delay := fireAt.Sub(s.clock.Now())

	s.mu.Lock()
	if old, exists := s.pending[task.ID]; exists {
		old.timer.Stop()
		delete(s.pending, task.ID)
	}
	if delay <= 0 {
		s.mu.Unlock()
		logging.Debug("alarm", "task %d fire time already passed, delivering now", task.ID)
		// Off the caller's goroutine on the real clock.
		s.clock.AfterFunc(0, func() { s.deliver(payload) })
		return nil
	}

	e := &entry{payload: payload, fireAt: fireAt}
	e.timer = s.clock.AfterFunc(delay, func() { s.fire(task.ID, e) })
	s.pending[task.ID] = e
	s.mu.Unlock()

	logging.Debug("alarm", "armed task %d at %s", task.ID, fireAt.Format(notify.DueFormat))
	return nil
}

func (s *Scheduler) fire(id int, e *entry) {
	s.mu.Lock()
	if s.pending[id] != e {
		// Replaced or cancelled after the timer was already running.
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.mu.Unlock()

	logging.Info("alarm", "firing alarm for task %d", id)
	s.deliver(e.payload)
}

// Cancel disarms the alarm for id. Returns false when none was pending.
func (s *Scheduler) Cancel(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.pending[id]
	if !exists {
		return false
	}
	e.timer.Stop()
	delete(s.pending, id)
	logging.Debug("alarm", "cancelled alarm for task %d", id)
	return true
}

// Pending returns the armed alarms ordered by fire time
func (s *Scheduler) Pending() []Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Pending, 0, len(s.pending))
	for id, e := range s.pending {
		result = append(result, Pending{TaskID: id, Title: e.payload.Title, FireAt: e.fireAt})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FireAt.Equal(result[j].FireAt) {
			return result[i].TaskID < result[j].TaskID
		}
		return result[i].FireAt.Before(result[j].FireAt)
	})
	return result
}

// Eligible reports whether task should have an alarm armed at now:
// NOTIFICATION, not completed, and a fire time still ahead.
func Eligible(task tasks.Task, now time.Time) bool {
	if task.IsCompleted {
		return false
	}
	fireAt, ok := FireTime(task)
	return ok && fireAt.After(now)
}

// Reconcile makes the timer table match list: eligible tasks without a
// current alarm are armed, alarms whose task is gone or no longer
// eligible are cancelled. Past fire times are never replayed.
func (s *Scheduler) Reconcile(list []tasks.Task) (armed, cancelled int) {
	now := s.clock.Now()

	want := make(map[int]tasks.Task)
	for _, t := range list {
		if Eligible(t, now) {
			want[t.ID] = t
		}
	}

	s.mu.Lock()
	var stale []int
	for id, e := range s.pending {
		t, keep := want[id]
		if !keep {
			stale = append(stale, id)
			continue
		}
		fireAt, _ := FireTime(t)
		if e.fireAt.Equal(fireAt) && e.payload.Title == t.Title {
			delete(want, id)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		if s.Cancel(id) {
			cancelled++
		}
	}

	ids := make([]int, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if err := s.Schedule(want[id]); err != nil {
			logging.Warn("alarm", "reconcile: %v", err)
			continue
		}
		armed++
	}

	if armed > 0 || cancelled > 0 {
		logging.Info("alarm", "reconciled: %d armed, %d cancelled, %d pending", armed, cancelled, len(s.Pending()))
	}
	return armed, cancelled
}

// Stop cancels every pending alarm
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, id)
	}
}
