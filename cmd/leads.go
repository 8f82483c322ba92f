package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/solar-leads/internal/store"
	"github.com/sells-group/solar-leads/pkg/notion"
)

var (
	leadsMinScore int
	leadsBucket   string
	leadsLimit    int
	leadsOut      string
	leadsNotion   bool
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List or export qualified leads ranked by score",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("leads"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		leads, err := st.QualifiedLeads(ctx, store.LeadFilter{
			MinScore:     leadsMinScore,
			Bucket:       leadsBucket,
			EligibleOnly: true,
			Limit:        leadsLimit,
		})
		if err != nil {
			return err
		}

		if leadsOut != "" {
			switch {
			case strings.HasSuffix(leadsOut, ".xlsx"):
				err = store.ExportXLSX(leadsOut, leads)
			case strings.HasSuffix(leadsOut, ".csv"):
				err = store.ExportCSV(leadsOut, leads)
			default:
				err = eris.Errorf("unsupported export format %q (want .csv or .xlsx)", leadsOut)
			}
			if err != nil {
				return err
			}
			cmd.Printf("exported %d leads to %s\n", len(leads), leadsOut)
			return nil
		}

		if leadsNotion {
			if cfg.Notion.Token == "" || cfg.Notion.LeadDB == "" {
				return eris.New("notion token and lead database not configured")
			}
			client := notion.NewClient(cfg.Notion.Token)
			pushed, err := notion.PushLeads(ctx, client, cfg.Notion.LeadDB, leads)
			if err != nil {
				return err
			}
			cmd.Printf("pushed %d leads to Notion\n", pushed)
			return nil
		}

		for _, lead := range leads {
			name := lead.BusinessName
			if name == "" {
				name = "(unidentified)"
			}
			cmd.Printf("%3d  %-40s  %s\n", lead.Score, name, lead.Address)
		}
		cmd.Printf("%d qualified leads\n", len(leads))
		return nil
	},
}

func init() {
	leadsCmd.Flags().IntVar(&leadsMinScore, "min-score", 0, "minimum score")
	leadsCmd.Flags().StringVar(&leadsBucket, "bucket", "", "filter by ICP bucket")
	leadsCmd.Flags().IntVar(&leadsLimit, "limit", 0, "maximum number of leads")
	leadsCmd.Flags().StringVar(&leadsOut, "out", "", "export to .csv or .xlsx file instead of printing")
	leadsCmd.Flags().BoolVar(&leadsNotion, "notion", false, "push leads to the configured Notion database")
	rootCmd.AddCommand(leadsCmd)
}
