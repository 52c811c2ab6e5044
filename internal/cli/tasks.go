package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vthunder/tasktracker/internal/render"
	"github.com/vthunder/tasktracker/internal/tasks"
	"github.com/vthunder/tasktracker/internal/tracker"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show all tasks, colored by urgency",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprint(cmd.OutOrStdout(), render.Render(s.tracker.Tasks(), s.clock.Now(), s.store.NightMode()))
			return nil
		},
	}
}

func newAddCmd(flags *globalFlags) *cobra.Command {
	var (
		due         string
		description string
		withAlarm   bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Long: `Add a task due at --due. Dates are RFC3339 or "YYYY-MM-DD HH:MM" in local time.
With --alarm a notification is raised one minute before the task is due.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueAt, err := tasks.ParseDue(due, time.Local)
			if err != nil {
				return err
			}
			alarmType := tasks.AlarmNone
			if withAlarm {
				alarmType = tasks.AlarmNotification
			}

			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.tracker.Handle(tracker.AddTask{
				Title:       args[0],
				Description: description,
				Due:         dueAt,
				Alarm:       alarmType,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s (due %s)\n", res.Index, res.Task.Title,
				res.Task.Due().Local().Format(render.DateFormat))
			return nil
		},
	}

	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date (required)")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")
	cmd.Flags().BoolVarP(&withAlarm, "alarm", "a", false, "Notify one minute before the due date")
	cmd.MarkFlagRequired("due")
	return cmd
}

func newDoneCmd(flags *globalFlags) *cobra.Command {
	var byTitle bool

	cmd := &cobra.Command{
		Use:   "done <index|title>",
		Short: "Mark a task completed",
		Long: `Mark a task completed by its list index, or by exact title.
When several tasks share a title the first one is completed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			var ev tracker.Event = tracker.MarkDoneByTitle{Title: args[0]}
			if index, err := strconv.Atoi(args[0]); err == nil && !byTitle {
				ev = tracker.SetCompleted{Index: index, Completed: true}
			}

			res, err := s.tracker.Handle(ev)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed #%d %s\n", res.Index, res.Task.Title)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&byTitle, "title", "t", false, "Treat the argument as a title even if it is a number")
	return cmd
}

func newUndoneCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "undone <index>",
		Short: "Mark a task not completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.tracker.Handle(tracker.SetCompleted{Index: index, Completed: false})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reopened #%d %s\n", res.Index, res.Task.Title)
			return nil
		},
	}
}

func newRemoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <index>",
		Aliases: []string{"remove"},
		Short:   "Remove a task (undo restores it)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.tracker.Handle(tracker.RemoveTask{Index: index})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task deleted: %s (run \"tasktracker undo\" to restore)\n", res.Task.Title)
			return nil
		},
	}
}

func newUndoCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Restore the most recently removed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.tracker.Handle(tracker.UndoRemove{})
			if errors.Is(err, tracker.ErrNothingToUndo) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to undo.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored #%d %s\n", res.Index, res.Task.Title)
			return nil
		},
	}
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: must be a number from \"tasktracker list\"", s)
	}
	return index, nil
}
