// cmd/acquisitor/ports.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.bug.st/serial"
)

// listPorts is swapped in tests.
var listPorts = serial.GetPortsList

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports usable as an RTU source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := listPorts()
			if err != nil {
				return fmt.Errorf("list serial ports: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(ports) == 0 {
				fmt.Fprintln(out, "no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}
}
