package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/rflorenc/substrate-reconciler/internal/config"
)

// Exit codes for CLI commands.
const (
	ExitCodeSuccess = 0
	// ExitCodeError indicates a failed command: unreachable endpoints,
	// identity resolution, store errors.
	ExitCodeError = 1
	// ExitCodeConfig indicates missing or invalid configuration.
	ExitCodeConfig = 2
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	envFile   string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "reconciler",
		Short: "Repair application records after a disaster-recovery migration",
		Long: `reconciler rewrites the substrate records of applications whose VMs were
migrated or failed over to another cluster, so that every record points at
the recovered VM, its subnets, disks and cluster account.`,
		SilenceUsage: true,
		Version:      version,
	}
	cmd.SetVersionTemplate(`{{printf "reconciler version %s\n" .Version}}`)

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load before reading the environment")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format, console or json (overrides LOG_FORMAT)")

	cmd.AddCommand(
		newRunCmd(opts),
		newResolveCmd(opts),
		newSeedCategoriesCmd(opts),
		newServeCmd(opts),
		newInitStoreCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	var missing *config.MissingError
	if errors.As(err, &missing) {
		return ExitCodeConfig
	}
	var invalid *config.InvalidError
	if errors.As(err, &invalid) {
		return ExitCodeConfig
	}
	return ExitCodeError
}
