package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <vault> <file>...",
		Short: "Encrypt files into a vault",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.openVault(args[0])
			if err != nil {
				return err
			}
			defer v.Close()

			for _, path := range args[1:] {
				e, err := v.Add(path)
				if err != nil {
					return fmt.Errorf("add %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s (slot %d)\n", e.Name, e.Slot)
			}
			return v.Save()
		},
	}
}
