package main

import (
	"github.com/spf13/cobra"

	"github.com/rflorenc/substrate-reconciler/internal/migration"
)

func newResolveCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the source to destination VM identity map",
		Long: `resolve pages through the recovery plan jobs on the destination and prints
the VM pairs a run would process. It does not touch the record store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			e, err := root.load(false)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			ids, err := migration.NewPipeline(nil, e.prism(), e.options(true, false, nil), e.log).Resolve(ctx)
			if err != nil {
				return err
			}
			return renderIdentityMap(cmd.OutOrStdout(), output, ids)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	return cmd
}
