package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meigma/vault/keys"
)

func newKeygenCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an RSA-4096 keypair",
		Long: "Generate an RSA-4096 keypair. The private key is written to --out and\n" +
			"the public key to --out with a .pub suffix.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := keys.Generate()
			if err != nil {
				return err
			}
			priv, err := k.MarshalPrivatePEM()
			if err != nil {
				return err
			}
			pub, err := k.MarshalPublicPEM()
			if err != nil {
				return err
			}
			if err := writeNew(out, priv, 0o600); err != nil {
				return err
			}
			if err := writeNew(out+".pub", pub, 0o644); err != nil {
				return err
			}
			a.logger.Info("generated keypair", "private", out, "public", out+".pub")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s.pub\n", out, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "vault.pem", "private key path")
	return cmd
}

// writeNew writes data to a file that must not exist yet.
func writeNew(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
