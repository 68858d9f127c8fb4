package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marine-obs/plet-harvester/internal/plet"
)

func newDatasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "Lists the dataset names the PLET service can export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			catalog := plet.NewCatalog(plet.CatalogConfig{
				SiteURL:   app.Config.PLET.SiteURL,
				UserAgent: app.Config.PLET.UserAgent,
			}, app.Logger)
			names, err := catalog.DatasetNames(cmd.Context())
			if err != nil {
				return fmt.Errorf("list datasets: %w", err)
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}
