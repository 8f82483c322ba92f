package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/solar-leads/internal/model"
)

var enrichEligibleOnly bool

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run stored records through resolution, classification, and scoring",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("enrich"); err != nil {
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

		p, err := initPipeline(st)
		if err != nil {
			return err
		}

		records, err := st.ListRecords(ctx)
		if err != nil {
			return eris.Wrap(err, "load records")
		}
		if len(records) == 0 {
			cmd.Println("no records to enrich")
			return nil
		}

		enriched, result, err := p.RunBatch(ctx, records)
		if err != nil {
			return err
		}

		if enrichEligibleOnly {
			qualified := model.QualifiedLeads(enriched)
			cmd.Printf("qualified leads: %d\n", len(qualified))
		}

		cmd.Printf("enriched %d records: %d merged away, %d resolved, %d qualified, %d failed\n",
			result.Total, result.Merged, result.Resolved, result.Qualified, result.Failed)
		return nil
	},
}

func init() {
	enrichCmd.Flags().BoolVar(&enrichEligibleOnly, "eligible-only", false, "also report the qualified lead count")
	rootCmd.AddCommand(enrichCmd)
}
