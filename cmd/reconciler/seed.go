package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rflorenc/substrate-reconciler/internal/migration"
)

func newSeedCategoriesCmd(root *rootOptions) *cobra.Command {
	var (
		dryRun bool
		output string
	)
	cmd := &cobra.Command{
		Use:   "seed-categories",
		Short: "Create on the destination the categories used by source project VMs",
		Long: `seed-categories walks the applications of SOURCE_PROJECT_NAME and creates
every category key and value their VMs carry on the destination, so that
recovered VMs can keep their categories. Platform-defined keys are never
created. Run it before the migration.`,
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
				printHeader(cmd.OutOrStdout(), "Category pre-seeding", dryRun, time.Now())
			}
			st, closeStore, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			var api migration.CategoryAPI = e.prism()
			if dryRun {
				api = migration.NewDryRunCategories(api, e.log)
			}
			res, err := migration.NewCategorySeeder(st, api, e.log).Seed(ctx, e.cfg.SourceProjectName)
			if res != nil {
				if rerr := renderSeedResult(cmd.OutOrStdout(), output, res); rerr != nil {
					return rerr
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log categories that would be created (default from DRY_RUN)")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "result format: table, json or yaml")
	return cmd
}
