// cmd/acquisitor/root.go
package main

import (
	"github.com/spf13/cobra"

	"github.com/tamzrod/modbus-acquisitor/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "acquisitor",
		Short: "Periodic Modbus acquisition with per-point intervals",
		Long: `acquisitor reads configured Modbus points on a fixed tick.
Each point is read every acquisition_interval ticks; results are kept in
memory and exposed over HTTP and, optionally, through a Modbus mirror.`,
		SilenceUsage: true,
		RunE:         runService,
	}
	config.RegisterFlags(root.Flags())

	root.AddCommand(newRunCmd(), newCheckCmd(), newPortsCmd())
	return root
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Run the acquisition service (default)",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runService,
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}
