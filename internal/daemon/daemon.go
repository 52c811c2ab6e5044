// Package daemon keeps alarms armed for a long-running process. It
// reloads the store on an interval so tasks changed by other
// invocations get their alarms armed or cancelled.
package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/vthunder/tasktracker/internal/logging"
)

// Reloader re-reads persisted tasks and reconciles alarms against them
type Reloader interface {
	Reload() (armed, cancelled int)
}

// Daemon polls a Reloader until stopped
type Daemon struct {
	reloader     Reloader
	pollInterval time.Duration
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// New creates a daemon. pollInterval must be positive.
func New(r Reloader, pollInterval time.Duration) *Daemon {
	return &Daemon{
		reloader:     r,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
	}
}

// Start reconciles once and begins polling
func (d *Daemon) Start() {
	armed, cancelled := d.reloader.Reload()
	logging.Info("daemon", "Started (poll every %s, %d alarms armed, %d cancelled)", d.pollInterval, armed, cancelled)

	d.wg.Add(1)
	go d.pollLoop()
}

// Stop ends polling and waits for the loop to exit. Safe to call twice.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopChan)
	})
	d.wg.Wait()
}

// Run starts the daemon and blocks until ctx is done
func (d *Daemon) Run(ctx context.Context) error {
	d.Start()
	<-ctx.Done()
	d.Stop()
	logging.Info("daemon", "Stopped")
	return nil
}

func (d *Daemon) pollLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			armed, cancelled := d.reloader.Reload()
			if armed > 0 || cancelled > 0 {
				logging.Debug("daemon", "poll: %d armed, %d cancelled", armed, cancelled)
			}
		}
	}
}
