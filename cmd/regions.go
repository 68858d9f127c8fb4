package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/marine-obs/plet-harvester/internal/regions"
)

func newRegionsCmd() *cobra.Command {
	var (
		wktID     string
		geojsonID string
	)

	cmd := &cobra.Command{
		Use:   "regions",
		Short: "Lists OSPAR COMP region IDs, or prints one region's geometry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			provider, err := regions.New(cmd.Context(), regions.Config{
				URL:         app.Config.Regions.WFSURL,
				MaxWKTChars: app.Config.Regions.MaxWKTChars,
			}, http.DefaultClient, app.Logger)
			if err != nil {
				return fmt.Errorf("load regions: %w", err)
			}

			switch {
			case wktID != "":
				out, err := provider.WKT(wktID, app.Config.Regions.Simplify)
				if err != nil {
					return err
				}
				fmt.Println(out)
			case geojsonID != "":
				out, err := provider.GeoJSON(geojsonID)
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			default:
				for _, id := range provider.IDs() {
					fmt.Println(id)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&wktID, "wkt", "", "print the (simplified) WKT of the region with this ID")
	cmd.Flags().StringVar(&geojsonID, "geojson", "", "print the GeoJSON feature of the region with this ID")

	return cmd
}
