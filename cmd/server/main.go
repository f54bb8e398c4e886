package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/logging"
)

const serviceName = "storefront"

type rootOptions struct {
	configPath string
	cfg        config.Config
	log        *logrus.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Storefront API server",
		Long:          "Catalog, account and shopping cart API backed by MySQL or SQLite.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.log = logging.New(cfg.LogLevel, cmd.OutOrStdout())
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))

	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logging.New("error", os.Stderr).WithError(err).Error("command failed")
		os.Exit(1)
	}
}
