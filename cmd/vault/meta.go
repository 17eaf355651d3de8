package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newMetaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Read and write vault metadata",
	}

	var encrypt bool
	set := &cobra.Command{
		Use:   "set <vault> <key> <value>",
		Short: "Append a metadata row (needs the private key)",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			v, err := a.openVault(args[0])
			if err != nil {
				return err
			}
			defer v.Close()
			if err := v.AddMetadata(args[1], args[2], encrypt); err != nil {
				return err
			}
			return v.Save()
		},
	}
	set.Flags().BoolVar(&encrypt, "encrypt", false, "encrypt the key and value")

	list := &cobra.Command{
		Use:   "list <vault>",
		Short: "List metadata rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.openExisting(args[0])
			if err != nil {
				return err
			}
			defer v.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tVALUE\tENCRYPTED")
			for _, row := range v.Metadata() {
				fmt.Fprintf(tw, "%s\t%s\t%t\n", row.Key, row.Value, row.Encrypted)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(set, list)
	return cmd
}
