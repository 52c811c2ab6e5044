// Package notify turns fired alarms and completion events into
// user-visible notifications. Both paths share one payload schema and
// notifications are always keyed by task id.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/vthunder/tasktracker/internal/logging"
	"github.com/vthunder/tasktracker/internal/tasks"
)

// Kind selects the priority tier of a notification
type Kind string

const (
	KindAlarm    Kind = "alarm"    // due-time alarm: high priority
	KindReminder Kind = "reminder" // generic reminder: default priority, auto-dismiss
)

// Action identifiers carried in payloads
const (
	ActionTaskDue       = "tasktracker.ACTION_TASK_DUE"
	ActionTaskCompleted = "tasktracker.ACTION_TASK_COMPLETED"
)

// Channels mirror the two notification channels of the mobile app
const (
	AlarmChannel = "alarm_notification_channel"
	TaskChannel  = "task_notification_channel"
)

// DueFormat is the layout of FormattedDueDate
const DueFormat = "2006-01-02 15:04"

// Payload is what an alarm or completion event delivers
type Payload struct {
	TaskID           int    `json:"taskId"`
	Title            string `json:"title"`
	DueDate          int64  `json:"dueDate"`
	FormattedDueDate string `json:"formattedDueDate"`
	Action           string `json:"action"`
	Kind             Kind   `json:"kind"`
}

// NewPayload builds a payload for task, formatting the due date in local time
func NewPayload(task tasks.Task, kind Kind, action string) Payload {
	return Payload{
		TaskID:           task.ID,
		Title:            task.Title,
		DueDate:          task.DueDate,
		FormattedDueDate: FormatDue(task.DueDate),
		Action:           action,
		Kind:             kind,
	}
}

// FormatDue renders epoch millis with DueFormat
func FormatDue(ms int64) string {
	return time.UnixMilli(ms).Format(DueFormat)
}

// Priority of a notification
type Priority int

const (
	PriorityDefault Priority = iota
	PriorityHigh
)

func (p Priority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "default"
}

// Notification is the rendered, backend-neutral alert
type Notification struct {
	ID         int
	Channel    string
	Title      string
	Body       string
	Priority   Priority
	AutoCancel bool
	Kind       Kind
	DueDate    int64
}

// FromPayload renders p according to its kind
func FromPayload(p Payload) Notification {
	formatted := p.FormattedDueDate
	if formatted == "" {
		formatted = FormatDue(p.DueDate)
	}

	if p.Kind == KindAlarm {
		title := p.Title
		if title == "" {
			title = "Task Alarm"
		}
		return Notification{
			ID:       p.TaskID,
			Channel:  AlarmChannel,
			Title:    "Alarm: " + title,
			Body:     "It's time for your task (due " + formatted + ")",
			Priority: PriorityHigh,
			Kind:     KindAlarm,
			DueDate:  p.DueDate,
		}
	}

	title := p.Title
	if title == "" {
		title = "Task Reminder"
	}
	body := "Due on " + formatted
	if p.Action == ActionTaskCompleted {
		body = "Completed (was due " + formatted + ")"
	}
	return Notification{
		ID:         p.TaskID,
		Channel:    TaskChannel,
		Title:      title,
		Body:       body,
		Priority:   PriorityDefault,
		AutoCancel: true,
		Kind:       KindReminder,
		DueDate:    p.DueDate,
	}
}

// Presenter shows a notification to the user
type Presenter interface {
	Present(ctx context.Context, n Notification) error
}

// LogPresenter writes notifications to the log
type LogPresenter struct{}

func (LogPresenter) Present(ctx context.Context, n Notification) error {
	logging.Info("notify", "#%d [%s/%s] %s: %s", n.ID, n.Channel, n.Priority, n.Title, n.Body)
	return nil
}

// Multi fans a notification out to every presenter and joins the errors
type Multi []Presenter

func (m Multi) Present(ctx context.Context, n Notification) error {
	var errs []error
	for _, p := range m {
		if err := p.Present(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Deliver renders p and hands it to presenter, logging any failure.
// Delivery has no caller to report to, so errors stop here.
func Deliver(ctx context.Context, presenter Presenter, p Payload) {
	if presenter == nil {
		return
	}
	if err := presenter.Present(ctx, FromPayload(p)); err != nil {
		logging.Warn("notify", "failed to present notification for task %d: %v", p.TaskID, err)
	}
}
