package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/vault"
	"github.com/meigma/vault/keys"
	"github.com/meigma/vault/registry"
)

// app carries configuration shared by every subcommand.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:           "vault",
		Short:         "Encrypted single-file vaults",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default $XDG_CONFIG_HOME/vault/config.yaml)")
	flags.StringP("key", "k", "", "PEM key file; a public key gives write-only access")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.Bool("plain-http", false, "use plain HTTP for registries")
	flags.Int64("max-file-size", int64(vault.DefaultMaxFileSize), "largest entry held in memory, in bytes (0 disables)")
	_ = a.v.BindPFlags(flags)

	a.v.SetEnvPrefix("VAULT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	cmd.AddCommand(
		newKeygenCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newExtractCmd(a),
		newMetaCmd(a),
		newFlagsCmd(a),
		newPushCmd(a),
		newPullCmd(a),
	)
	return cmd
}

// init reads the config file and installs the logger.
func (a *app) init(cmd *cobra.Command) error {
	if err := a.readConfig(); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log-level"))); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) readConfig() error {
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return nil //nolint:nilerr // no config dir means no config file
	}
	a.v.SetConfigName("config")
	a.v.SetConfigType("yaml")
	a.v.AddConfigPath(filepath.Join(dir, "vault"))
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// capability loads the configured key. Without a key the vault can only be
// listed with sealed names.
func (a *app) capability() (keys.Capability, error) {
	path := a.v.GetString("key")
	if path == "" {
		return nil, nil
	}
	k, err := keys.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return k, nil
}

// openVault opens path with the configured key and options.
func (a *app) openVault(path string, opts ...vault.Option) (*vault.Vault, error) {
	caps, err := a.capability()
	if err != nil {
		return nil, err
	}
	maxSize := a.v.GetInt64("max-file-size")
	if maxSize < 0 {
		return nil, fmt.Errorf("max-file-size must not be negative: %d", maxSize)
	}
	opts = append([]vault.Option{
		vault.WithLogger(a.logger),
		vault.WithMaxFileSize(uint64(maxSize)),
	}, opts...)
	return vault.Open(path, caps, opts...)
}

// openExisting is openVault for commands that must not create path.
func (a *app) openExisting(path string, opts ...vault.Option) (*vault.Vault, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return a.openVault(path, opts...)
}

// registryClient builds a registry client from the configuration.
func (a *app) registryClient() *registry.Client {
	return registry.New(
		registry.WithPlainHTTP(a.v.GetBool("plain-http")),
		registry.WithDockerConfig(),
		registry.WithLogger(a.logger),
	)
}
