package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rflorenc/substrate-reconciler/internal/migration"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		dryRun         bool
		updateProjects bool
		instances      []string
		output         string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Rewrite the records of every migrated VM",
		Long: `run resolves which VMs were recovered on the destination from the completed
migrate and failover jobs, then rewrites the substrate element, replica
group, substrate config, clone blueprint and patch configs of each one to
match the recovered VM. Instances are processed in batches; a failing
instance is counted and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			e, err := root.load(true)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("dry-run") {
				dryRun = e.cfg.DryRun
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if output == outputTable {
				printHeader(cmd.OutOrStdout(), "Substrate reconciliation", dryRun, time.Now())
			}
			st, closeStore, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			opts := e.options(dryRun, updateProjects, instances)
			summary, runErr := migration.NewPipeline(st, e.prism(), opts, e.log).Run(ctx)
			if summary != nil {
				if err := renderSummary(cmd.OutOrStdout(), output, summary); err != nil {
					return err
				}
			}
			if runErr != nil {
				return fmt.Errorf("run: %w", runErr)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log intended changes without writing (default from DRY_RUN)")
	cmd.Flags().BoolVar(&updateProjects, "update-projects", false, "move owning applications to the destination project afterwards")
	cmd.Flags().StringSliceVar(&instances, "instance", nil, "restrict the run to these source VM uuids (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "summary format: table, json or yaml")
	return cmd
}
