package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSettingsCmd(flags *globalFlags) *cobra.Command {
	var nightMode bool

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			if cmd.Flags().Changed("night-mode") {
				if err := s.store.SetNightMode(nightMode); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "state:         %s\n", s.cfg.StatePath)
			fmt.Fprintf(out, "storage:       %s\n", s.cfg.Storage)
			fmt.Fprintf(out, "night mode:    %s\n", onOff(s.store.NightMode()))
			fmt.Fprintf(out, "exact alarms:  %s\n", onOff(s.cfg.ExactAlarms))
			fmt.Fprintf(out, "discord:       %s\n", onOff(s.cfg.Discord.Enabled()))
			fmt.Fprintf(out, "poll interval: %s\n", s.cfg.PollInterval)
			return nil
		},
	}

	cmd.Flags().BoolVar(&nightMode, "night-mode", false, "Use the dark palette for list output")
	return cmd
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
