package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/vthunder/tasktracker/internal/alarm"
	"github.com/vthunder/tasktracker/internal/clock"
	"github.com/vthunder/tasktracker/internal/notify"
	"github.com/vthunder/tasktracker/internal/storage"
	"github.com/vthunder/tasktracker/internal/tasks"
)

var now = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

// failingStore wraps a TaskStore and can be told to reject saves
type failingStore struct {
	*storage.TaskStore
	fail  bool
	saves int
}

func (f *failingStore) Save(list []tasks.Task) error {
	f.saves++
	if f.fail {
		return errors.New("disk full")
	}
	return f.TaskStore.Save(list)
}

type capturePresenter struct {
	mu   sync.Mutex
	seen []notify.Notification
}

func (c *capturePresenter) Present(ctx context.Context, n notify.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, n)
	return nil
}

type blockingPresenter struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingPresenter) Present(ctx context.Context, n notify.Notification) error {
	close(b.entered)
	<-b.release
	return nil
}

type fixture struct {
	tracker   *Tracker
	store     *failingStore
	clock     *clock.FakeClock
	scheduler *alarm.Scheduler
	presenter *capturePresenter
	fired     []notify.Payload
}

func newFixture(t *testing.T, initial []tasks.Task, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:     &failingStore{TaskStore: storage.NewTaskStore(storage.NewMemorySlot())},
		clock:     clock.Fake(now),
		presenter: &capturePresenter{},
	}
	f.scheduler = alarm.New(f.clock, func(p notify.Payload) { f.fired = append(f.fired, p) })
	all := append([]Option{
		WithClock(f.clock),
		WithScheduler(f.scheduler),
		WithPresenter(f.presenter),
		WithUndoStore(f.store.TaskStore),
	}, opts...)
	f.tracker = New(f.store, initial, all...)
	return f
}

func titles(list []tasks.Task) []string {
	var out []string
	for _, t := range list {
		out = append(out, t.Title)
	}
	return out
}

func TestAdd_PersistsAndAllocatesID(t *testing.T) {
	f := newFixture(t, storage.SampleTasks(now))

	res, err := f.tracker.Handle(AddTask{Title: "Gym", Due: now.Add(48 * time.Hour)})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if res.Index != 3 || res.Task.ID != 4 || res.Task.AlarmType != tasks.AlarmNone {
		t.Errorf("result = %+v", res)
	}

	stored := f.store.Load()
	if len(stored) != 4 || stored[3].Title != "Gym" {
		t.Errorf("stored = %v", titles(stored))
	}
	if len(f.scheduler.Pending()) != 0 {
		t.Error("NONE task should not arm an alarm")
	}
}

func TestAdd_RejectsEmptyTitle(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.tracker.Handle(AddTask{Title: "  ", Due: now}); !errors.Is(err, ErrTitleRequired) {
		t.Errorf("err = %v, want ErrTitleRequired", err)
	}
	if f.store.saves != 0 {
		t.Error("rejected add should not persist")
	}
}

func TestAdd_NotificationSchedulesAlarm(t *testing.T) {
	f := newFixture(t, nil)
	due := now.Add(2 * time.Hour)

	res, err := f.tracker.Handle(AddTask{Title: "Call", Due: due, Alarm: tasks.AlarmNotification})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	pending := f.scheduler.Pending()
	if len(pending) != 1 || pending[0].TaskID != res.Task.ID || !pending[0].FireAt.Equal(due.Add(-time.Minute)) {
		t.Fatalf("pending = %+v", pending)
	}

	f.clock.Advance(2 * time.Hour)
	if len(f.fired) != 1 || f.fired[0].Title != "Call" {
		t.Errorf("fired = %+v", f.fired)
	}
}

func TestAdd_PermissionDeniedStillAdds(t *testing.T) {
	f := newFixture(t, nil)
	denied := alarm.New(f.clock, func(notify.Payload) {}, alarm.WithPermission(func() bool { return false }))
	tr := New(f.store, nil, WithScheduler(denied), WithClock(f.clock))

	if _, err := tr.Handle(AddTask{Title: "x", Due: now.Add(time.Hour), Alarm: tasks.AlarmNotification}); err != nil {
		t.Fatalf("add should succeed when alarms are denied: %v", err)
	}
	if tr.Len() != 1 || len(denied.Pending()) != 0 {
		t.Errorf("len=%d pending=%d", tr.Len(), len(denied.Pending()))
	}
}

func TestPersistFailureRollsBack(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		ev    Event
	}{
		{name: "add", ev: AddTask{Title: "x", Due: now}},
		{name: "remove first", ev: RemoveTask{Index: 0}},
		{name: "remove middle", ev: RemoveTask{Index: 1}},
		{name: "complete", ev: SetCompleted{Index: 0, Completed: true}},
		{name: "uncomplete", ev: SetCompleted{Index: 2, Completed: false}},
		{name: "mark done", ev: MarkDoneByTitle{Title: "Warning"}},
		{
			name: "undo",
			setup: func(f *fixture) {
				f.store.TaskStore.SaveRemoved(tasks.New(7, "gone", now, tasks.AlarmNone))
			},
			ev: UndoRemove{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, storage.SampleTasks(now))
			if tt.setup != nil {
				tt.setup(f)
			}
			want := f.tracker.Tasks()
			f.store.fail = true

			if _, err := f.tracker.Handle(tt.ev); err == nil {
				t.Fatal("expected persistence error")
			}
			got := f.tracker.Tasks()
			if len(got) != len(want) {
				t.Fatalf("len = %d, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
				}
			}
			if len(f.presenter.seen) != 0 {
				t.Error("failed mutation must not notify")
			}
		})
	}
}

func TestSharedStoreSeesOtherWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	store := storage.NewTaskStore(storage.NewFileSlot(path))
	initial, _, err := store.LoadOrSeed(now)
	if err != nil {
		t.Fatal(err)
	}

	server := New(store, initial, WithUndoStore(store), WithSharedStore())

	// A separate invocation over the same file.
	other := storage.NewTaskStore(storage.NewFileSlot(path))
	cli := New(other, other.Load(), WithUndoStore(other))
	if _, err := cli.Handle(AddTask{Title: "From CLI", Due: now}); err != nil {
		t.Fatal(err)
	}

	res, err := server.Handle(AddTask{Title: "From server", Due: now})
	if err != nil {
		t.Fatal(err)
	}
	if res.Task.ID != 5 || res.Index != 4 {
		t.Errorf("server add = %+v", res)
	}

	got := titles(store.Load())
	want := []string{"Due today", "Warning", "Free time", "From CLI", "From server"}
	if len(got) != len(want) {
		t.Fatalf("stored = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stored = %v, want %v", got, want)
		}
	}
	if server.Len() != 5 {
		t.Errorf("server Len = %d", server.Len())
	}

	// The undo buffer is re-read too: the server restores what the other
	// invocation removed most recently, once.
	cli = New(other, other.Load(), WithUndoStore(other))
	cli.Handle(RemoveTask{Index: 0})
	cli.Handle(UndoRemove{})
	cli.Handle(RemoveTask{Index: 1})

	restored, err := server.Handle(UndoRemove{})
	if err != nil || restored.Task.Title != "Free time" {
		t.Errorf("server undo = %+v, %v", restored, err)
	}
	if _, err := server.Handle(UndoRemove{}); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("second undo err = %v", err)
	}
}

func TestCompletionNoticeDeliveredOutsideLock(t *testing.T) {
	f := newFixture(t, storage.SampleTasks(now))
	blocking := &blockingPresenter{entered: make(chan struct{}), release: make(chan struct{})}
	tr := New(f.store, storage.SampleTasks(now), WithPresenter(blocking))

	done := make(chan struct{})
	go func() {
		tr.Handle(SetCompleted{Index: 0, Completed: true})
		close(done)
	}()
	<-blocking.entered

	// The session stays usable while the presenter is stuck.
	read := make(chan int, 1)
	go func() { read <- tr.Len() }()
	select {
	case n := <-read:
		if n != 3 {
			t.Errorf("Len = %d", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tracker locked during delivery")
	}

	close(blocking.release)
	<-done
}

func TestPastAlarmOnAddDoesNotHoldSession(t *testing.T) {
	f := newFixture(t, nil)
	release := make(chan struct{})
	sched := alarm.New(clock.Real(), func(notify.Payload) { <-release })
	defer close(release)
	tr := New(f.store, nil, WithScheduler(sched))

	added := make(chan error, 1)
	go func() {
		_, err := tr.Handle(AddTask{Title: "late", Due: time.Now().Add(-time.Hour), Alarm: tasks.AlarmNotification})
		added <- err
	}()
	select {
	case err := <-added:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("add blocked on alarm delivery")
	}
	if tr.Len() != 1 {
		t.Errorf("Len = %d", tr.Len())
	}
}

func TestRemove_CancelsAlarmAndBuffersForUndo(t *testing.T) {
	f := newFixture(t, nil)
	added, _ := f.tracker.Handle(AddTask{Title: "Call", Due: now.Add(time.Hour), Alarm: tasks.AlarmNotification})

	res, err := f.tracker.Handle(RemoveTask{Index: 0})
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if res.Task.ID != added.Task.ID {
		t.Errorf("removed %+v", res.Task)
	}
	if len(f.scheduler.Pending()) != 0 {
		t.Error("removal should cancel the alarm")
	}
	if len(f.store.Load()) != 0 {
		t.Error("removal not persisted")
	}
	buffered, err := f.store.LoadRemoved()
	if err != nil || buffered == nil || buffered.ID != added.Task.ID {
		t.Errorf("undo buffer = %+v, %v", buffered, err)
	}

	f.clock.Advance(2 * time.Hour)
	if len(f.fired) != 0 {
		t.Error("cancelled alarm fired")
	}
}

func TestRemove_OutOfRange(t *testing.T) {
	f := newFixture(t, storage.SampleTasks(now))
	for _, index := range []int{-1, 3, 100} {
		if _, err := f.tracker.Handle(RemoveTask{Index: index}); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("index %d: err = %v", index, err)
		}
	}
	if f.tracker.Len() != 3 || f.store.saves != 0 {
		t.Error("out-of-range remove must not mutate or persist")
	}
}

func TestUndo_RestoresAtEnd(t *testing.T) {
	f := newFixture(t, storage.SampleTasks(now))

	f.tracker.Handle(RemoveTask{Index: 0})
	res, err := f.tracker.Handle(UndoRemove{})
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if res.Index != 2 || res.Task.Title != "Due today" {
		t.Errorf("result = %+v", res)
	}
	got := titles(f.store.Load())
	want := []string{"Warning", "Free time", "Due today"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stored = %v, want %v", got, want)
		}
	}

	if _, err := f.tracker.Handle(UndoRemove{}); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("second undo err = %v", err)
	}
}

func TestUndo_SurvivesSessions(t *testing.T) {
	f := newFixture(t, storage.SampleTasks(now))
	f.tracker.Handle(RemoveTask{Index: 2})

	// A new session over the same store sees the buffer.
	next := New(f.store, f.store.Load(), WithUndoStore(f.store.TaskStore))
	res, err := next.Handle(UndoRemove{})
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if res.Task.ID != 3 {
		t.Errorf("restored %+v", res.Task)
	}
}

func TestNextIDAvoidsUndoBuffer(t *testing.T) {
	f := newFixture(t, storage.SampleTasks(now))
	f.tracker.Handle(RemoveTask{Index: 2}) // id 3

	res, _ := f.tracker.Handle(AddTask{Title: "new", Due: now})
	if res.Task.ID != 4 {
		t.Errorf("new id = %d, want 4", res.Task.ID)
	}
	restored, _ := f.tracker.Handle(UndoRemove{})
	if restored.Task.ID != 3 {
		t.Errorf("restored id = %d", restored.Task.ID)
	}

	seen := map[int]bool{}
	for _, task := range f.tracker.Tasks() {
		if seen[task.ID] {
			t.Fatalf("duplicate id %d", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestSetCompleted_CancelsAndNotifies(t *testing.T) {
	f := newFixture(t, nil)
	f.tracker.Handle(AddTask{Title: "Call", Due: now.Add(time.Hour), Alarm: tasks.AlarmNotification})

	res, err := f.tracker.Handle(SetCompleted{Index: 0, Completed: true})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if !res.Task.IsCompleted || !f.store.Load()[0].IsCompleted {
		t.Error("completion not applied or persisted")
	}
	if len(f.scheduler.Pending()) != 0 {
		t.Error("completing should cancel the alarm")
	}
	if len(f.presenter.seen) != 1 {
		t.Fatalf("expected one completion notice, got %d", len(f.presenter.seen))
	}
	n := f.presenter.seen[0]
	if n.Kind != notify.KindReminder || n.ID != res.Task.ID || !n.AutoCancel {
		t.Errorf("notification = %+v", n)
	}

	// Completing again is persisted but not re-announced.
	f.tracker.Handle(SetCompleted{Index: 0, Completed: true})
	if len(f.presenter.seen) != 1 {
		t.Error("repeat completion should not notify")
	}
}

func TestSetCompleted_UncompleteRearmsFutureOnly(t *testing.T) {
	future := tasks.New(1, "future", now.Add(time.Hour), tasks.AlarmNotification)
	future.IsCompleted = true
	past := tasks.New(2, "past", now.Add(-time.Hour), tasks.AlarmNotification)
	past.IsCompleted = true
	f := newFixture(t, []tasks.Task{future, past})

	f.tracker.Handle(SetCompleted{Index: 0, Completed: false})
	f.tracker.Handle(SetCompleted{Index: 1, Completed: false})

	pending := f.scheduler.Pending()
	if len(pending) != 1 || pending[0].TaskID != 1 {
		t.Errorf("pending = %+v", pending)
	}
	if len(f.fired) != 0 {
		t.Error("un-completing a past task must not fire")
	}
}

func TestSetCompleted_NoticeDisabled(t *testing.T) {
	f := newFixture(t, storage.SampleTasks(now), WithCompletionNotice(false))
	f.tracker.Handle(SetCompleted{Index: 0, Completed: true})
	if len(f.presenter.seen) != 0 {
		t.Error("notice sent while disabled")
	}
}

func TestMarkDoneByTitle(t *testing.T) {
	list := []tasks.Task{
		tasks.New(1, "dup", now, tasks.AlarmNone),
		tasks.New(2, "dup", now, tasks.AlarmNone),
	}
	f := newFixture(t, list)

	res, err := f.tracker.Handle(MarkDoneByTitle{Title: "dup"})
	if err != nil {
		t.Fatalf("mark done failed: %v", err)
	}
	if res.Index != 0 {
		t.Errorf("first match should win, got index %d", res.Index)
	}
	got := f.tracker.Tasks()
	if !got[0].IsCompleted || got[1].IsCompleted {
		t.Errorf("tasks = %+v", got)
	}

	if _, err := f.tracker.Handle(MarkDoneByTitle{Title: "missing"}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestObserveSeesRowChanges(t *testing.T) {
	f := newFixture(t, nil)
	var kinds []tasks.ChangeKind
	f.tracker.Observe(tasks.ObserverFunc(func(c tasks.Change) { kinds = append(kinds, c.Kind) }))

	f.tracker.Handle(AddTask{Title: "a", Due: now})
	f.tracker.Handle(SetCompleted{Index: 0, Completed: true})
	f.tracker.Handle(RemoveTask{Index: 0})

	want := []tasks.ChangeKind{tasks.Inserted, tasks.Changed, tasks.Removed}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestReload(t *testing.T) {
	f := newFixture(t, nil)

	// Another process writes to the store.
	other := []tasks.Task{tasks.New(9, "elsewhere", now.Add(time.Hour), tasks.AlarmNotification)}
	if err := f.store.TaskStore.Save(other); err != nil {
		t.Fatal(err)
	}

	armed, cancelled := f.tracker.Reload()
	if armed != 1 || cancelled != 0 {
		t.Errorf("armed=%d cancelled=%d", armed, cancelled)
	}
	if f.tracker.Len() != 1 {
		t.Errorf("len = %d", f.tracker.Len())
	}

	f.store.TaskStore.Save(nil)
	if _, cancelled := f.tracker.Reload(); cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", cancelled)
	}
}
