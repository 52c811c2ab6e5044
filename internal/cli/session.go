package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vthunder/tasktracker/internal/alarm"
	"github.com/vthunder/tasktracker/internal/clock"
	"github.com/vthunder/tasktracker/internal/config"
	"github.com/vthunder/tasktracker/internal/logging"
	"github.com/vthunder/tasktracker/internal/notify"
	"github.com/vthunder/tasktracker/internal/storage"
	"github.com/vthunder/tasktracker/internal/tracker"
)

// session is everything one command invocation needs
type session struct {
	cfg       config.Config
	clock     clock.Clock
	slot      storage.Slot
	store     *storage.TaskStore
	scheduler *alarm.Scheduler
	presenter notify.Presenter
	tracker   *tracker.Tracker
}

type sessionOptions struct {
	alarms bool
	shared bool
}

type sessionOption func(*sessionOptions)

// withoutAlarms leaves alarm delivery to the daemon
func withoutAlarms() sessionOption {
	return func(o *sessionOptions) { o.alarms = false }
}

// withSharedStore re-reads the store before every tracker operation
func withSharedStore() sessionOption {
	return func(o *sessionOptions) { o.shared = true }
}

func openSession(flags *globalFlags, opts ...sessionOption) (*session, error) {
	o := sessionOptions{alarms: true}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := config.Load(flags.statePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flags.storage != "" {
		cfg.Storage = flags.storage
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	logging.SetDebug(cfg.Debug || flags.verbose)

	if err := os.MkdirAll(cfg.StatePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}
	slot, err := storage.Open(cfg.Storage, cfg.StatePath)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:   cfg,
		clock: clock.Real(),
		slot:  slot,
		store: storage.NewTaskStore(slot),
	}

	presenters := notify.Multi{notify.LogPresenter{}}
	if cfg.Discord.Enabled() {
		dg, err := notify.NewDiscordSession(cfg.Discord.Token)
		if err != nil {
			slot.Close()
			return nil, err
		}
		presenters = append(presenters, notify.NewDiscordPresenter(dg, cfg.Discord.ChannelID))
		logging.Debug("cli", "Discord notifications enabled for channel %s", cfg.Discord.ChannelID)
	}
	s.presenter = presenters

	if o.alarms {
		s.scheduler = alarm.New(s.clock, s.deliver, alarm.WithPermission(func() bool { return cfg.ExactAlarms }))
	}

	list, seeded, err := s.store.LoadOrSeed(s.clock.Now())
	if err != nil {
		s.Close()
		return nil, err
	}
	if seeded {
		logging.Debug("cli", "seeded sample tasks in %s", cfg.StatePath)
	}

	trackerOpts := []tracker.Option{
		tracker.WithPresenter(s.presenter),
		tracker.WithUndoStore(s.store),
		tracker.WithCompletionNotice(cfg.NotifyOnComplete),
		tracker.WithClock(s.clock),
	}
	if s.scheduler != nil {
		trackerOpts = append(trackerOpts, tracker.WithScheduler(s.scheduler))
	}
	if o.shared {
		trackerOpts = append(trackerOpts, tracker.WithSharedStore())
	}
	s.tracker = tracker.New(s.store, list, trackerOpts...)
	return s, nil
}

func (s *session) deliver(p notify.Payload) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	notify.Deliver(ctx, s.presenter, p)
}

// Close disarms alarms and releases storage
func (s *session) Close() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if err := s.slot.Close(); err != nil {
		logging.Warn("cli", "failed to close storage: %v", err)
	}
}
