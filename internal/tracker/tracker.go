// Package tracker owns a task-tracking session: the in-memory list, its
// persistence after every mutation, and the alarm and notification side
// effects of each change.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vthunder/tasktracker/internal/alarm"
	"github.com/vthunder/tasktracker/internal/clock"
	"github.com/vthunder/tasktracker/internal/logging"
	"github.com/vthunder/tasktracker/internal/notify"
	"github.com/vthunder/tasktracker/internal/tasks"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrTitleRequired   = errors.New("title is required")
	ErrUnknownEvent    = errors.New("unknown event")
)

// Store persists the whole collection
type Store interface {
	Load() []tasks.Task
	Save(list []tasks.Task) error
}

// UndoStore persists the undo buffer between sessions. Optional; without
// one the buffer lives only as long as the Tracker.
type UndoStore interface {
	SaveRemoved(task tasks.Task) error
	LoadRemoved() (*tasks.Task, error)
	ClearRemoved() error
}

// Tracker serializes access to the task list
type Tracker struct {
	mu   sync.Mutex
	list *tasks.List

	store     Store
	undo      UndoStore
	removed   *tasks.Task
	scheduler *alarm.Scheduler
	presenter notify.Presenter
	clock     clock.Clock

	notifyOnComplete bool
	shared           bool
	observers        []tasks.Observer

	// completion notices raised under mu, delivered after unlock
	outbox []notify.Payload
}

// Option configures a Tracker
type Option func(*Tracker)

// WithScheduler arms and cancels alarms as tasks change
func WithScheduler(s *alarm.Scheduler) Option {
	return func(t *Tracker) { t.scheduler = s }
}

// WithPresenter receives completion notices
func WithPresenter(p notify.Presenter) Option {
	return func(t *Tracker) { t.presenter = p }
}

// WithUndoStore persists the undo buffer
func WithUndoStore(u UndoStore) Option {
	return func(t *Tracker) { t.undo = u }
}

// WithCompletionNotice toggles the reminder sent when a task is completed
func WithCompletionNotice(enabled bool) Option {
	return func(t *Tracker) { t.notifyOnComplete = enabled }
}

// WithSharedStore re-reads the store (and the undo buffer) before every
// read and mutation, so a long-running session never writes back a list
// that another process has changed since.
func WithSharedStore() Option {
	return func(t *Tracker) { t.shared = true }
}

// WithClock replaces the wall clock
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// New starts a session over initial, which is normally the result of
// the store's load-or-seed.
func New(store Store, initial []tasks.Task, opts ...Option) *Tracker {
	t := &Tracker{
		store:            store,
		clock:            clock.Real(),
		notifyOnComplete: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.observers = append(t.observers, tasks.ObserverFunc(func(c tasks.Change) {
		logging.Debug("tracker", "%s row %d: #%d %s", c.Kind, c.Index, c.Task.ID, logging.Truncate(c.Task.Title, 40))
	}))
	t.reset(initial)
	return t
}

func (t *Tracker) reset(initial []tasks.Task) {
	t.list = tasks.NewList(initial)
	for _, o := range t.observers {
		t.list.Observe(o)
	}
}

// Observe registers o for row-level change notifications. Observers
// survive Reload.
func (t *Tracker) Observe(o tasks.Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
	t.list.Observe(o)
}

// Tasks returns a snapshot of the list in display order
func (t *Tracker) Tasks() []tasks.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refresh()
	return t.list.Tasks()
}

// Len returns the number of rows
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refresh()
	return t.list.Len()
}

// Handle applies ev and persists the result. A failed save rolls the
// in-memory list back. Notifications raised by ev are delivered after
// the session lock is released.
func (t *Tracker) Handle(ev Event) (Result, error) {
	t.mu.Lock()
	res, err := t.apply(ev)
	outbox := t.outbox
	t.outbox = nil
	t.mu.Unlock()

	for _, p := range outbox {
		notify.Deliver(context.Background(), t.presenter, p)
	}
	return res, err
}

func (t *Tracker) apply(ev Event) (Result, error) {
	t.refresh()

	switch e := ev.(type) {
	case AddTask:
		return t.add(e)
	case RemoveTask:
		return t.remove(e.Index)
	case SetCompleted:
		return t.setCompleted(e.Index, e.Completed)
	case MarkDoneByTitle:
		index := t.list.FindFirstByTitle(e.Title)
		if index == -1 {
			return Result{Index: -1}, fmt.Errorf("%q: %w", e.Title, ErrTaskNotFound)
		}
		return t.setCompleted(index, true)
	case UndoRemove:
		return t.undoRemove()
	default:
		return Result{Index: -1}, fmt.Errorf("%T: %w", ev, ErrUnknownEvent)
	}
}

// refresh reloads shared sessions from the store
func (t *Tracker) refresh() {
	if !t.shared {
		return
	}
	t.reset(t.store.Load())
	t.removed = nil
}

func (t *Tracker) add(e AddTask) (Result, error) {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return Result{Index: -1}, ErrTitleRequired
	}
	alarmType := e.Alarm
	if alarmType == "" {
		alarmType = tasks.AlarmNone
	}

	var extra []tasks.Task
	if buffered := t.buffered(); buffered != nil {
		extra = append(extra, *buffered)
	}
	task := tasks.New(t.list.NextID(extra...), title, e.Due, alarmType)
	task.Description = e.Description

	t.list.Add(task)
	index := t.list.Len() - 1
	if err := t.persist(); err != nil {
		t.list.RemoveAt(index)
		return Result{Index: -1, Task: task}, err
	}
	logging.Info("tracker", "added task %d: %s", task.ID, logging.Truncate(task.Title, 60))

	t.arm(task, false)
	return Result{Index: index, Task: task}, nil
}

func (t *Tracker) remove(index int) (Result, error) {
	removed, ok := t.list.RemoveAt(index)
	if !ok {
		return Result{Index: index}, fmt.Errorf("remove %d of %d: %w", index, t.list.Len(), ErrIndexOutOfRange)
	}
	if err := t.persist(); err != nil {
		t.list.InsertAt(index, removed)
		return Result{Index: index, Task: removed}, err
	}
	logging.Info("tracker", "removed task %d: %s", removed.ID, logging.Truncate(removed.Title, 60))

	if t.scheduler != nil {
		t.scheduler.Cancel(removed.ID)
	}

	t.removed = &removed
	if t.undo != nil {
		if err := t.undo.SaveRemoved(removed); err != nil {
			return Result{Index: index, Task: removed}, fmt.Errorf("failed to save undo buffer: %w", err)
		}
	}
	return Result{Index: index, Task: removed}, nil
}

func (t *Tracker) setCompleted(index int, completed bool) (Result, error) {
	before, ok := t.list.At(index)
	if !ok {
		return Result{Index: index}, fmt.Errorf("set completed %d of %d: %w", index, t.list.Len(), ErrIndexOutOfRange)
	}
	t.list.SetCompleted(index, completed)
	task, _ := t.list.At(index)
	if err := t.persist(); err != nil {
		t.list.SetCompleted(index, before.IsCompleted)
		return Result{Index: index, Task: before}, err
	}

	if completed {
		if t.scheduler != nil {
			t.scheduler.Cancel(task.ID)
		}
		if !before.IsCompleted {
			logging.Info("tracker", "completed task %d: %s", task.ID, logging.Truncate(task.Title, 60))
			if t.notifyOnComplete && t.presenter != nil {
				t.outbox = append(t.outbox, notify.NewPayload(task, notify.KindReminder, notify.ActionTaskCompleted))
			}
		}
	} else {
		t.arm(task, true)
	}
	return Result{Index: index, Task: task}, nil
}

func (t *Tracker) undoRemove() (Result, error) {
	buffered := t.buffered()
	if buffered == nil {
		return Result{Index: -1}, ErrNothingToUndo
	}
	task := *buffered

	t.list.Add(task)
	index := t.list.Len() - 1
	if err := t.persist(); err != nil {
		t.list.RemoveAt(index)
		return Result{Index: -1, Task: task}, err
	}

	t.removed = nil
	if t.undo != nil {
		if err := t.undo.ClearRemoved(); err != nil {
			return Result{Index: index, Task: task}, fmt.Errorf("failed to clear undo buffer: %w", err)
		}
	}
	logging.Info("tracker", "restored task %d: %s", task.ID, logging.Truncate(task.Title, 60))

	t.arm(task, true)
	return Result{Index: index, Task: task}, nil
}

// buffered returns the task held for undo, consulting the undo store
// when this session has not removed anything yet.
func (t *Tracker) buffered() *tasks.Task {
	if t.removed != nil || t.undo == nil {
		return t.removed
	}
	task, err := t.undo.LoadRemoved()
	if err != nil {
		logging.Warn("tracker", "failed to read undo buffer: %v", err)
		return nil
	}
	t.removed = task
	return task
}

// arm schedules task's alarm. With aheadOnly set, a fire time that has
// already passed is skipped instead of delivered at once. A denied
// permission has already been logged by the scheduler.
func (t *Tracker) arm(task tasks.Task, aheadOnly bool) {
	if t.scheduler == nil || task.AlarmType != tasks.AlarmNotification || task.IsCompleted {
		return
	}
	if aheadOnly && !alarm.Eligible(task, t.clock.Now()) {
		return
	}
	if err := t.scheduler.Schedule(task); err != nil && !errors.Is(err, alarm.ErrExactAlarmDenied) {
		logging.Warn("tracker", "failed to schedule alarm for task %d: %v", task.ID, err)
	}
}

func (t *Tracker) persist() error {
	if err := t.store.Save(t.list.Tasks()); err != nil {
		return fmt.Errorf("failed to persist tasks: %w", err)
	}
	return nil
}

// Reload replaces the list with the store's contents and reconciles
// alarms against it. Used by long-running processes to pick up changes
// made by other invocations.
func (t *Tracker) Reload() (armed, cancelled int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.reset(t.store.Load())
	t.removed = nil
	if t.scheduler == nil {
		return 0, 0
	}
	return t.scheduler.Reconcile(t.list.Tasks())
}
