package tasks

// ChangeKind identifies a row-level change in a List
type ChangeKind int

const (
	Inserted ChangeKind = iota
	Removed
	Changed
)

func (k ChangeKind) String() string {
	switch k {
	case Inserted:
		return "inserted"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	default:
		return "unknown"
	}
}

// Change describes one mutation; Task is the row after the change (or the
// removed row for Removed).
type Change struct {
	Kind  ChangeKind
	Index int
	Task  Task
}

// Observer is told about every mutation, after it has been applied
type Observer interface {
	TaskListChanged(c Change)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(c Change)

func (f ObserverFunc) TaskListChanged(c Change) { f(c) }

// List is the ordered in-memory task collection. It is not safe for
// concurrent use; owners serialize access.
type List struct {
	tasks     []Task
	observers []Observer
}

// NewList copies initial into a new List
func NewList(initial []Task) *List {
	l := &List{tasks: make([]Task, len(initial))}
	copy(l.tasks, initial)
	return l
}

// Observe registers o for change notifications
func (l *List) Observe(o Observer) {
	l.observers = append(l.observers, o)
}

func (l *List) notify(c Change) {
	for _, o := range l.observers {
		o.TaskListChanged(c)
	}
}

// Len returns the number of tasks
func (l *List) Len() int {
	return len(l.tasks)
}

// At returns the task at index
func (l *List) At(index int) (Task, bool) {
	if index < 0 || index >= len(l.tasks) {
		return Task{}, false
	}
	return l.tasks[index], true
}

// Tasks returns a copy of the collection in display order
func (l *List) Tasks() []Task {
	result := make([]Task, len(l.tasks))
	copy(result, l.tasks)
	return result
}

// Add appends task. Ids are not validated here.
func (l *List) Add(task Task) {
	l.tasks = append(l.tasks, task)
	l.notify(Change{Kind: Inserted, Index: len(l.tasks) - 1, Task: task})
}

// RemoveAt deletes the task at index. Out-of-range indexes are a no-op
// and report false.
func (l *List) RemoveAt(index int) (Task, bool) {
	if index < 0 || index >= len(l.tasks) {
		return Task{}, false
	}
	removed := l.tasks[index]
	l.tasks = append(l.tasks[:index], l.tasks[index+1:]...)
	l.notify(Change{Kind: Removed, Index: index, Task: removed})
	return removed, true
}

// InsertAt puts task at index, shifting later rows down. index is
// clamped to [0, Len()].
func (l *List) InsertAt(index int, task Task) {
	if index < 0 {
		index = 0
	}
	if index > len(l.tasks) {
		index = len(l.tasks)
	}
	l.tasks = append(l.tasks, Task{})
	copy(l.tasks[index+1:], l.tasks[index:])
	l.tasks[index] = task
	l.notify(Change{Kind: Inserted, Index: index, Task: task})
}

// SetCompleted flips the completion flag in place
func (l *List) SetCompleted(index int, completed bool) bool {
	if index < 0 || index >= len(l.tasks) {
		return false
	}
	l.tasks[index].IsCompleted = completed
	l.notify(Change{Kind: Changed, Index: index, Task: l.tasks[index]})
	return true
}

// FindFirstByTitle returns the index of the first task whose title equals
// title exactly, or -1. Duplicate titles resolve to the earliest row.
func (l *List) FindFirstByTitle(title string) int {
	for i := range l.tasks {
		if l.tasks[i].Title == title {
			return i
		}
	}
	return -1
}

// MarkDoneByTitle completes the first task titled title and returns its
// index, or -1 when nothing matched.
func (l *List) MarkDoneByTitle(title string) int {
	index := l.FindFirstByTitle(title)
	if index == -1 {
		return -1
	}
	l.SetCompleted(index, true)
	return index
}

// NextID returns one more than the highest id in the list and in extra.
// Tasks held outside the list (an undo buffer) go in extra so a restored
// task never collides with a newer one.
func (l *List) NextID(extra ...Task) int {
	highest := 0
	for _, t := range l.tasks {
		if t.ID > highest {
			highest = t.ID
		}
	}
	for _, t := range extra {
		if t.ID > highest {
			highest = t.ID
		}
	}
	return highest + 1
}
