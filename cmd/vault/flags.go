package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meigma/vault"
)

func newFlagsCmd(a *app) *cobra.Command {
	var compress bool
	cmd := &cobra.Command{
		Use:   "flags <vault>",
		Short: "Show or set vault flags",
		Long:  "Show the vault flags. With --compress, set them; flags are fixed once an entry is saved.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			open := a.openExisting
			if cmd.Flags().Changed("compress") {
				open = a.openVault
			}
			v, err := open(args[0])
			if err != nil {
				return err
			}
			defer v.Close()

			if cmd.Flags().Changed("compress") {
				flags := v.Flags() &^ vault.FlagCompressed
				if compress {
					flags |= vault.FlagCompressed
				}
				if err := v.SetFlags(flags); err != nil {
					return err
				}
				if err := v.Save(); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d\ncompressed: %t\n", v.Version(), v.Flags().Has(vault.FlagCompressed))
			return nil
		},
	}
	cmd.Flags().BoolVar(&compress, "compress", false, "zstd-compress entry data before encryption")
	return cmd
}
