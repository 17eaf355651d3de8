package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var digests bool
	cmd := &cobra.Command{
		Use:   "list <vault>",
		Short: "List vault entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.openExisting(args[0])
			if err != nil {
				return err
			}
			defer v.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			header := "SLOT\tNAME\tSIZE\tMODIFIED"
			if digests {
				header += "\tDIGEST"
			}
			fmt.Fprintln(tw, header)
			for _, e := range v.List() {
				line := fmt.Sprintf("%d\t%s\t%s\t%s", e.Slot, e.Name, humanize.IBytes(e.Size), humanize.Time(e.ModTime))
				if digests {
					d, err := v.Digest(e)
					if err != nil {
						return err
					}
					line += "\t" + d.String()
				}
				fmt.Fprintln(tw, line)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&digests, "digest", false, "show the sha256 digest of each ciphertext")
	return cmd
}
