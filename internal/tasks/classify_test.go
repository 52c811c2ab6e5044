package tasks

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task Task
		want Urgency
	}{
		{"completed and overdue", Task{DueDate: now.Add(-72 * time.Hour).UnixMilli(), IsCompleted: true}, Success},
		{"completed and soon", Task{DueDate: now.Add(time.Hour).UnixMilli(), IsCompleted: true}, Success},
		{"three days out", Task{DueDate: now.Add(72 * time.Hour).UnixMilli()}, Success},
		{"an hour late", Task{DueDate: now.Add(-time.Hour).UnixMilli()}, Danger},
		{"due in an hour", Task{DueDate: now.Add(time.Hour).UnixMilli()}, Warning},
		{"due now", Task{DueDate: now.UnixMilli()}, Warning},
		{"exactly two days", Task{DueDate: now.Add(48 * time.Hour).UnixMilli()}, Warning},
		{"just past two days", Task{DueDate: now.Add(48*time.Hour + time.Millisecond).UnixMilli()}, Success},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.task, now); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}
