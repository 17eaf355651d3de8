package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/vault"
)

func newExtractCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "extract <vault> [name...]",
		Short: "Decrypt entries to a directory",
		Long:  "Decrypt the named entries, or every entry when no name is given, into --out.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.openExisting(args[0], vault.WithProgress(func(ev vault.ProgressEvent) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", ev.Stage, ev.Name, humanize.IBytes(ev.Bytes))
			}))
			if err != nil {
				return err
			}
			defer v.Close()

			if len(args) == 1 {
				_, err := v.ExtractAll(out)
				return err
			}
			for _, name := range args[1:] {
				e, ok := v.Lookup(name)
				if !ok {
					return fmt.Errorf("%s: %w", name, vault.ErrNoEntry)
				}
				if err := v.Extract(e, filepath.Join(out, filepath.Base(e.Name))); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory")
	return cmd
}
