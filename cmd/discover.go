package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/solar-leads/internal/discovery"
	"github.com/sells-group/solar-leads/pkg/anthropic"
	"github.com/sells-group/solar-leads/pkg/places"
)

var (
	discoverCity   string
	discoverNoAI   bool
	discoverDryRun bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search for new building candidates by ICP segment",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("discover"); err != nil {
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

		buckets, err := initBuckets()
		if err != nil {
			return err
		}

		placesClient, err := initPlaces()
		if err != nil {
			return err
		}

		var aiClient anthropic.Client
		if cfg.Anthropic.Key != "" && !discoverNoAI {
			aiClient = anthropic.NewClient(cfg.Anthropic.Key)
		}

		city := discoverCity
		if city == "" {
			city = cfg.Region.City
		}

		gen := discovery.NewTermGenerator(aiClient, cfg.Anthropic.Model, buckets)
		terms := gen.Terms(ctx, city)

		if discoverDryRun {
			for _, t := range terms {
				cmd.Println(t)
			}
			return nil
		}

		sched := discovery.NewScheduler(st, placesClient, cfg.Discovery.FreshnessDays)
		bias := &places.LocationBias{
			Lat:    cfg.Region.Lat,
			Lng:    cfg.Region.Lng,
			Radius: cfg.Region.RadiusMeters,
		}

		records, result, err := sched.Run(ctx, terms, city, bias)
		if err != nil {
			return err
		}
		if len(records) > 0 {
			if err := st.UpsertRecords(ctx, records); err != nil {
				return eris.Wrap(err, "save discovered records")
			}
		}

		cmd.Printf("searched %d terms (%d fresh, skipped), found %d candidates\n",
			result.Searched, result.Skipped, result.Found)
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverCity, "city", "", "target city (default from config)")
	discoverCmd.Flags().BoolVar(&discoverNoAI, "no-ai", false, "skip AI term generation, use static permutations")
	discoverCmd.Flags().BoolVar(&discoverDryRun, "dry-run", false, "print generated terms without searching")
	rootCmd.AddCommand(discoverCmd)
}
