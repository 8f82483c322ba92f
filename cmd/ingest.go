package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/solar-leads/internal/geo"
	"github.com/sells-group/solar-leads/internal/ingest"
	"github.com/sells-group/solar-leads/internal/model"
	"github.com/sells-group/solar-leads/internal/store"
	"github.com/sells-group/solar-leads/pkg/overpass"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load raw building candidates into the store",
}

var ingestOSMCmd = &cobra.Command{
	Use:   "osm",
	Short: "Pull building footprints from OpenStreetMap via Overpass",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("ingest"); err != nil {
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

		client := overpass.NewClient(
			overpass.WithBaseURL(cfg.Overpass.BaseURL),
			overpass.WithTimeout(cfg.Overpass.TimeoutSecs),
		)

		bbox := geo.BoundingBox(cfg.Region.Lat, cfg.Region.Lng, cfg.Region.RadiusMeters)
		records, err := ingest.FromOverpass(ctx, client, bbox, cfg.Region.City, cfg.Region.State)
		if err != nil {
			return err
		}

		return saveIngested(cmd, st, records)
	},
}

var (
	shpAddressField string
	shpTypeField    string
	shpStoriesField string
)

var ingestShapefileCmd = &cobra.Command{
	Use:   "shapefile <path>",
	Short: "Load building footprints from a shapefile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("ingest"); err != nil {
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

		records, err := ingest.FromShapefile(args[0], ingest.ShapefileOptions{
			AddressField: shpAddressField,
			TypeField:    shpTypeField,
			StoriesField: shpStoriesField,
			City:         cfg.Region.City,
			State:        cfg.Region.State,
		})
		if err != nil {
			return err
		}

		return saveIngested(cmd, st, records)
	},
}

var ingestCSVCmd = &cobra.Command{
	Use:   "csv <path>",
	Short: "Load a seed list of addresses from CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("ingest"); err != nil {
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

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open seed file %s", args[0])
		}
		defer f.Close()

		records, err := ingest.FromCSV(f, "csv:"+args[0])
		if err != nil {
			return err
		}

		return saveIngested(cmd, st, records)
	},
}

func saveIngested(cmd *cobra.Command, st store.Store, records []model.BuildingRecord) error {
	if len(records) == 0 {
		cmd.Println("no records ingested")
		return nil
	}
	if err := st.UpsertRecords(cmd.Context(), records); err != nil {
		return eris.Wrap(err, "save ingested records")
	}
	zap.L().Info("ingest complete", zap.Int("records", len(records)))
	cmd.Printf("ingested %d records\n", len(records))
	return nil
}

func init() {
	ingestShapefileCmd.Flags().StringVar(&shpAddressField, "address-field", "address", "attribute field holding the street address")
	ingestShapefileCmd.Flags().StringVar(&shpTypeField, "type-field", "", "attribute field holding the building type")
	ingestShapefileCmd.Flags().StringVar(&shpStoriesField, "stories-field", "", "attribute field holding the story count")

	ingestCmd.AddCommand(ingestOSMCmd, ingestShapefileCmd, ingestCSVCmd)
	rootCmd.AddCommand(ingestCmd)
}
