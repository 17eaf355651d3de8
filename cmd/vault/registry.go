package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/vault/registry"
)

func newPushCmd(a *app) *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "push <vault> <ref>",
		Short: "Push a vault to an OCI registry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := a.registryClient().Push(cmd.Context(), args[1], args[0], registry.WithTags(tags...))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %s@%s\n", args[1], desc.Digest)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "additional tags")
	return cmd
}

func newPullCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <ref> <vault>",
		Short: "Pull a vault from an OCI registry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.registryClient().Pull(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pulled %s (%s) to %s\n", m.Digest(), humanize.IBytes(uint64(m.Layer().Size)), args[1])
			return nil
		},
	}
}
