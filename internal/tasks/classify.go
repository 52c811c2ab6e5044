package tasks

import "time"

// Urgency is the status bucket a task is colored by
type Urgency int

const (
	Success Urgency = iota // completed, or comfortably far away
	Warning                // due within two days
	Danger                 // overdue and not completed
)

func (u Urgency) String() string {
	switch u {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Danger:
		return "danger"
	default:
		return "unknown"
	}
}

// relaxedHorizon is how far out a due date must be to count as success
const relaxedHorizon = 2 * 24 * time.Hour

// Classify buckets a task relative to now. Completion wins over lateness,
// and lateness wins over the distance check.
func Classify(t Task, now time.Time) Urgency {
	nowMs := now.UnixMilli()
	switch {
	case t.IsCompleted:
		return Success
	case t.DueDate < nowMs:
		return Danger
	case t.DueDate-nowMs > relaxedHorizon.Milliseconds():
		return Success
	default:
		return Warning
	}
}
