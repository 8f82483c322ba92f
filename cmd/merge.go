package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/solar-leads/internal/geo"
)

var mergeDryRun bool

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Collapse near-duplicate building records in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("merge"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		records, err := st.ListRecords(ctx)
		if err != nil {
			return eris.Wrap(err, "load records")
		}

		threshold := cfg.Dedup.DistanceThresholdM
		if threshold <= 0 {
			threshold = geo.DefaultDistanceThreshold
		}
		merged := geo.MergeDuplicates(records, threshold)
		absorbed := len(records) - len(merged)

		if mergeDryRun {
			cmd.Printf("%d records, %d duplicates would be merged\n", len(records), absorbed)
			return nil
		}

		if absorbed > 0 {
			keep := make(map[string]struct{}, len(merged))
			for _, r := range merged {
				keep[r.ID] = struct{}{}
			}
			var drop []string
			for _, r := range records {
				if _, ok := keep[r.ID]; !ok {
					drop = append(drop, r.ID)
				}
			}
			if err := st.DeleteRecords(ctx, drop); err != nil {
				return eris.Wrap(err, "delete absorbed records")
			}
			// Survivors carry merged sources and filled coordinates.
			if err := st.UpsertRecords(ctx, merged); err != nil {
				return eris.Wrap(err, "save merged records")
			}
		}

		zap.L().Info("merge complete",
			zap.Int("records", len(records)),
			zap.Int("absorbed", absorbed),
		)
		cmd.Printf("merged %d duplicates, %d records remain\n", absorbed, len(merged))
		return nil
	},
}

func init() {
	mergeCmd.Flags().BoolVar(&mergeDryRun, "dry-run", false, "report duplicate count without modifying the store")
	rootCmd.AddCommand(mergeCmd)
}
