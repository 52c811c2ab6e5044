// Package tools provides MCP tool registration with dependency injection.
package tools

import (
	"time"

	"github.com/vthunder/tasktracker/internal/clock"
	"github.com/vthunder/tasktracker/internal/tracker"
)

// Dependencies holds the services the task tools need.
// Optional fields may be nil.
type Dependencies struct {
	// Required
	Tracker *tracker.Tracker

	// Optional
	Clock    clock.Clock    // defaults to the wall clock
	Location *time.Location // zone for due dates without an offset; defaults to time.Local

	// If set, called after every tool invocation with the tool name
	OnToolCall func(toolName string)
}

func (d *Dependencies) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock.Now()
}

func (d *Dependencies) location() *time.Location {
	if d.Location == nil {
		return time.Local
	}
	return d.Location
}
