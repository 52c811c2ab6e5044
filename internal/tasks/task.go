// Package tasks holds the task entity, its urgency classification and the
// ordered in-memory list that every front end mutates.
package tasks

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AlarmType decides whether and when a reminder fires for a task
type AlarmType string

const (
	AlarmNone         AlarmType = "NONE"
	AlarmNotification AlarmType = "NOTIFICATION"
)

// ParseAlarmType accepts the wire names case-insensitively, plus "" for NONE
func ParseAlarmType(s string) (AlarmType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE":
		return AlarmNone, nil
	case "NOTIFICATION":
		return AlarmNotification, nil
	default:
		return "", fmt.Errorf("unknown alarm type %q (want NONE or NOTIFICATION)", s)
	}
}

func (a *AlarmType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseAlarmType(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Task is one to-do item. DueDate is epoch milliseconds, which is also
// the persisted representation.
type Task struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	DueDate     int64     `json:"dueDate"`
	IsCompleted bool      `json:"isCompleted"`
	AlarmType   AlarmType `json:"alarmType"`
	Description string    `json:"description"`
}

// New builds an incomplete task due at due
func New(id int, title string, due time.Time, alarm AlarmType) Task {
	return Task{
		ID:        id,
		Title:     title,
		DueDate:   due.UnixMilli(),
		AlarmType: alarm,
	}
}

// Due returns DueDate as a local time
func (t Task) Due() time.Time {
	return time.UnixMilli(t.DueDate)
}

// MarshalJSON writes an empty description as null
func (t Task) MarshalJSON() ([]byte, error) {
	type plain Task
	aux := struct {
		plain
		Description *string `json:"description"`
	}{plain: plain(t)}
	if t.Description != "" {
		aux.Description = &t.Description
	}
	if aux.AlarmType == "" {
		aux.AlarmType = AlarmNone
	}
	return json.Marshal(aux)
}

func (t *Task) UnmarshalJSON(b []byte) error {
	type plain Task
	aux := struct {
		*plain
		Description *string `json:"description"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.Description = ""
	if aux.Description != nil {
		t.Description = *aux.Description
	}
	if t.AlarmType == "" {
		t.AlarmType = AlarmNone
	}
	return nil
}
