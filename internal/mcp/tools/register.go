package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/tasktracker/internal/logging"
	"github.com/vthunder/tasktracker/internal/tasks"
	"github.com/vthunder/tasktracker/internal/tracker"
)

// ToolHandler handles a tool call with already-decoded arguments. The
// returned text becomes the tool result; an error becomes a tool error.
type ToolHandler func(ctx context.Context, args map[string]any) (string, error)

// RegisterAll registers the task tools on s
func RegisterAll(s *server.MCPServer, deps *Dependencies) {
	s.AddTool(mcp.NewTool("task_list",
		mcp.WithDescription("List all tasks in display order with their index, id, due date, completion state, alarm and urgency (success, warning, danger)."),
	), adapt("task_list", deps, handleList(deps)))

	s.AddTool(mcp.NewTool("task_add",
		mcp.WithDescription("Add a task. Tasks with alarm NOTIFICATION get a reminder one minute before the due date."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Task title"),
		),
		mcp.WithString("due",
			mcp.Required(),
			mcp.Description("Due date as RFC3339 or 'YYYY-MM-DD HH:MM' (local time)"),
		),
		mcp.WithString("description",
			mcp.Description("Optional longer description"),
		),
		mcp.WithString("alarm",
			mcp.Description("NONE (default) or NOTIFICATION"),
		),
	), adapt("task_add", deps, handleAdd(deps)))

	s.AddTool(mcp.NewTool("task_complete",
		mcp.WithDescription("Mark a task completed (or not completed). Identify it by index from task_list, or by exact title; the first matching title wins."),
		mcp.WithNumber("index",
			mcp.Description("Row index from task_list"),
		),
		mcp.WithString("title",
			mcp.Description("Exact task title, used when index is not given"),
		),
		mcp.WithBoolean("completed",
			mcp.Description("Completion state to set. Default: true"),
		),
	), adapt("task_complete", deps, handleComplete(deps)))

	s.AddTool(mcp.NewTool("task_remove",
		mcp.WithDescription("Remove the task at index. The last removed task can be restored with task_undo."),
		mcp.WithNumber("index",
			mcp.Required(),
			mcp.Description("Row index from task_list"),
		),
	), adapt("task_remove", deps, handleRemove(deps)))

	s.AddTool(mcp.NewTool("task_undo",
		mcp.WithDescription("Restore the most recently removed task at the end of the list."),
	), adapt("task_undo", deps, handleUndo(deps)))
}

// adapt turns a ToolHandler into an mcp-go handler. Handler errors are
// reported as tool errors, never as protocol errors.
func adapt(name string, deps *Dependencies, h ToolHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		if args == nil {
			args = map[string]any{}
		}

		if deps.OnToolCall != nil {
			deps.OnToolCall(name)
		}

		text, err := h(ctx, args)
		if err != nil {
			logging.Debug("mcp", "%s failed: %v", name, err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

type taskRow struct {
	Index       int    `json:"index"`
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Due         string `json:"due"`
	Completed   bool   `json:"completed"`
	Alarm       string `json:"alarm"`
	Urgency     string `json:"urgency"`
}

func toRow(index int, t tasks.Task, now time.Time, loc *time.Location) taskRow {
	return taskRow{
		Index:       index,
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Due:         t.Due().In(loc).Format(time.RFC3339),
		Completed:   t.IsCompleted,
		Alarm:       string(t.AlarmType),
		Urgency:     tasks.Classify(t, now).String(),
	}
}

func handleList(deps *Dependencies) ToolHandler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		now := deps.now()
		list := deps.Tracker.Tasks()

		rows := make([]taskRow, 0, len(list))
		for i, t := range list {
			rows = append(rows, toRow(i, t, now, deps.location()))
		}
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal tasks: %w", err)
		}
		return string(data), nil
	}
}

func handleAdd(deps *Dependencies) ToolHandler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		title, _ := args["title"].(string)
		if strings.TrimSpace(title) == "" {
			return "", fmt.Errorf("title is required")
		}
		dueStr, _ := args["due"].(string)
		due, err := tasks.ParseDue(dueStr, deps.location())
		if err != nil {
			return "", err
		}
		alarmStr, _ := args["alarm"].(string)
		alarmType, err := tasks.ParseAlarmType(alarmStr)
		if err != nil {
			return "", err
		}
		description, _ := args["description"].(string)

		res, err := deps.Tracker.Handle(tracker.AddTask{
			Title:       title,
			Description: description,
			Due:         due,
			Alarm:       alarmType,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Added task %d %q at index %d, due %s", res.Task.ID, res.Task.Title, res.Index,
			res.Task.Due().In(deps.location()).Format(time.RFC3339)), nil
	}
}

func handleComplete(deps *Dependencies) ToolHandler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		completed := true // default
		if c, ok := args["completed"].(bool); ok {
			completed = c
		}

		var (
			res tracker.Result
			err error
		)
		if index, ok, ierr := intArg(args, "index"); ierr != nil {
			return "", ierr
		} else if ok {
			res, err = deps.Tracker.Handle(tracker.SetCompleted{Index: index, Completed: completed})
		} else {
			title, _ := args["title"].(string)
			if title == "" {
				return "", fmt.Errorf("index or title is required")
			}
			if !completed {
				return "", fmt.Errorf("completed=false requires index")
			}
			res, err = deps.Tracker.Handle(tracker.MarkDoneByTitle{Title: title})
		}
		if err != nil {
			return "", err
		}

		state := "completed"
		if !res.Task.IsCompleted {
			state = "not completed"
		}
		return fmt.Sprintf("Task %d %q marked %s", res.Task.ID, res.Task.Title, state), nil
	}
}

func handleRemove(deps *Dependencies) ToolHandler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		index, ok, err := intArg(args, "index")
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("index is required")
		}
		res, err := deps.Tracker.Handle(tracker.RemoveTask{Index: index})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Removed task %d %q. Use task_undo to restore it.", res.Task.ID, res.Task.Title), nil
	}
}

func handleUndo(deps *Dependencies) ToolHandler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		res, err := deps.Tracker.Handle(tracker.UndoRemove{})
		if errors.Is(err, tracker.ErrNothingToUndo) {
			return "Nothing to undo", nil
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Restored task %d %q at index %d", res.Task.ID, res.Task.Title, res.Index), nil
	}
}

// intArg reads a whole number. JSON numbers arrive as float64.
func intArg(args map[string]any, key string) (value int, ok bool, err error) {
	raw, present := args[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false, fmt.Errorf("%s must be a whole number", key)
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	default:
		return 0, false, fmt.Errorf("%s must be a number", key)
	}
}
