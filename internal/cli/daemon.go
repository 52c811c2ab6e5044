package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vthunder/tasktracker/internal/daemon"
)

func newDaemonCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Stay running and deliver alarms",
		Long: `Arm alarms for every pending task with a NOTIFICATION alarm and deliver them
as they fire. The store is re-read every poll interval so tasks added by other
commands are picked up. Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return daemon.New(s.tracker, s.cfg.PollInterval).Run(ctx)
		},
	}
}
