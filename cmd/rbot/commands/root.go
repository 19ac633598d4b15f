// Package commands implements the rbot command line.
package commands

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keshon/rbot/internal/config"
	"github.com/keshon/rbot/internal/logging"
)

// NewRootCmd builds the root command with every subcommand registered.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "rbot",
		Short: "Discord bot with reaction approvals",
		Long: `rbot answers commands addressed to it by mention, asks for ✅/❌
confirmation before changing the server and relays deployment approvals to
the deployment supervisor.

Examples:
  rbot serve
  rbot exec --as 123456789012345678 --role Admin "help"
  rbot roles set 123456789012345678 Moderator`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newExecCmd(),
		newRolesCmd(),
		newDocsCmd(),
	)

	root.PersistentFlags().String("log-level", "", "override LOG_LEVEL")
	return root
}

// setup loads the configuration and builds the logger for a subcommand.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	logger, closer := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: cmd.ErrOrStderr(),
	})
	return cfg, logger, closer, nil
}
