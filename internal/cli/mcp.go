package cli

import (
	"github.com/spf13/cobra"

	"github.com/vthunder/tasktracker/internal/mcp"
	"github.com/vthunder/tasktracker/internal/mcp/tools"
)

func newMCPCmd(flags *globalFlags, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the task tools to an MCP client over stdio",
		Long: `Serve the task tools to an MCP client over stdio. Every tool call re-reads
the store, so commands run alongside the server are never overwritten.
Alarms are not delivered from this process; run "tasktracker daemon" for that.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openMCPSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			srv := mcp.NewServer(version, &tools.Dependencies{
				Tracker: s.tracker,
				Clock:   s.clock,
			})
			return mcp.ServeStdio(srv)
		},
	}
}

// openMCPSession opens a long-lived session that shares the store with
// other invocations and never arms alarms of its own.
func openMCPSession(flags *globalFlags) (*session, error) {
	return openSession(flags, withoutAlarms(), withSharedStore())
}
