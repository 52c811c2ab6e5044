package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/vthunder/tasktracker/internal/logging"
	"github.com/vthunder/tasktracker/internal/tasks"
)

// Slot keys
const (
	TasksKey       = "tasks"
	LastRemovedKey = "lastRemoved"
	NightModeKey   = "nightMode"
)

// TaskStore serializes the whole task collection into one slot key
type TaskStore struct {
	slot Slot
}

// NewTaskStore wraps slot
func NewTaskStore(slot Slot) *TaskStore {
	return &TaskStore{slot: slot}
}

// Load returns the persisted tasks in order. A missing key, a read error
// or an undecodable blob all yield an empty list.
func (s *TaskStore) Load() []tasks.Task {
	blob, ok, err := s.slot.Get(TasksKey)
	if err != nil {
		logging.Warn("store", "failed to read tasks: %v", err)
		return []tasks.Task{}
	}
	if !ok || blob == "" {
		return []tasks.Task{}
	}

	var result []tasks.Task
	if err := json.Unmarshal([]byte(blob), &result); err != nil {
		logging.Warn("store", "failed to parse tasks, starting empty: %v", err)
		return []tasks.Task{}
	}
	if result == nil {
		result = []tasks.Task{}
	}
	return result
}

// Save overwrites the persisted collection with list
func (s *TaskStore) Save(list []tasks.Task) error {
	if list == nil {
		list = []tasks.Task{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}
	if err := s.slot.Put(TasksKey, string(data)); err != nil {
		return fmt.Errorf("failed to write tasks: %w", err)
	}
	logging.Debug("store", "saved %d tasks", len(list))
	return nil
}

// SampleTasks are the three rows shown on first run
func SampleTasks(now time.Time) []tasks.Task {
	overdue := tasks.New(1, "Due today", now.Add(-24*time.Hour), tasks.AlarmNone)
	upcoming := tasks.New(2, "Warning", now.Add(24*time.Hour), tasks.AlarmNotification)
	done := tasks.New(3, "Free time", now, tasks.AlarmNone)
	done.IsCompleted = true
	return []tasks.Task{overdue, upcoming, done}
}

// LoadOrSeed loads the collection, seeding and saving the samples when it
// is empty so the next load is stable. seeded reports whether that
// happened.
func (s *TaskStore) LoadOrSeed(now time.Time) (list []tasks.Task, seeded bool, err error) {
	list = s.Load()
	if len(list) > 0 {
		return list, false, nil
	}

	list = SampleTasks(now)
	if err := s.Save(list); err != nil {
		return list, true, err
	}
	logging.Info("store", "seeded %d sample tasks", len(list))
	return list, true, nil
}

// SaveRemoved keeps task as the undo candidate
func (s *TaskStore) SaveRemoved(task tasks.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal removed task: %w", err)
	}
	return s.slot.Put(LastRemovedKey, string(data))
}

// LoadRemoved returns the undo candidate, or nil when there is none
func (s *TaskStore) LoadRemoved() (*tasks.Task, error) {
	blob, ok, err := s.slot.Get(LastRemovedKey)
	if err != nil {
		return nil, err
	}
	if !ok || blob == "" {
		return nil, nil
	}
	var task tasks.Task
	if err := json.Unmarshal([]byte(blob), &task); err != nil {
		return nil, fmt.Errorf("failed to parse removed task: %w", err)
	}
	return &task, nil
}

// ClearRemoved drops the undo candidate
func (s *TaskStore) ClearRemoved() error {
	return s.slot.Delete(LastRemovedKey)
}

// NightMode reports the stored theme preference (false when unset)
func (s *TaskStore) NightMode() bool {
	v, ok, err := s.slot.Get(NightModeKey)
	if err != nil || !ok {
		return false
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return enabled
}

// SetNightMode stores the theme preference
func (s *TaskStore) SetNightMode(enabled bool) error {
	return s.slot.Put(NightModeKey, strconv.FormatBool(enabled))
}
