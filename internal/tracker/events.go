package tracker

import (
	"time"

	"github.com/vthunder/tasktracker/internal/tasks"
)

// Event is a request from a front end. Handle dispatches on the
// concrete type.
type Event interface {
	eventName() string
}

// AddTask creates a task with the next free id
type AddTask struct {
	Title       string
	Description string
	Due         time.Time
	Alarm       tasks.AlarmType
}

// RemoveTask deletes the row at Index and keeps it for undo
type RemoveTask struct {
	Index int
}

// SetCompleted sets the completion flag of the row at Index
type SetCompleted struct {
	Index     int
	Completed bool
}

// MarkDoneByTitle completes the first row titled Title
type MarkDoneByTitle struct {
	Title string
}

// UndoRemove restores the most recently removed task at the end
type UndoRemove struct{}

func (AddTask) eventName() string         { return "add" }
func (RemoveTask) eventName() string      { return "remove" }
func (SetCompleted) eventName() string    { return "set_completed" }
func (MarkDoneByTitle) eventName() string { return "mark_done" }
func (UndoRemove) eventName() string      { return "undo" }

// Result describes the row an event touched
type Result struct {
	Index int
	Task  tasks.Task
}
