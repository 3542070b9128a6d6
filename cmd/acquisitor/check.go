// cmd/acquisitor/check.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamzrod/modbus-acquisitor/internal/config"
)

func newCheckCmd() *cobra.Command {
	var dump bool

	cmd := &cobra.Command{
		Use:   "check <config.yaml>",
		Short: "Load, normalize and validate a config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("config invalid: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config ok: %d points, tick %s, source %s\n",
				len(cfg.Acquisition.Points), cfg.Acquisition.Tick, cfg.Acquisition.Source.Mode)

			if dump {
				b, err := config.Dump(cfg)
				if err != nil {
					return err
				}
				_, _ = out.Write(b)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print the normalized config")
	return cmd
}
