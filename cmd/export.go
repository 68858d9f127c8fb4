package cmd

import (
	"context"
	"fmt"
	"path"

	gcsclient "cloud.google.com/go/storage"
	"github.com/spf13/cobra"

	"github.com/marine-obs/plet-harvester/internal/config"
	"github.com/marine-obs/plet-harvester/internal/export"
	"github.com/marine-obs/plet-harvester/internal/storage"
	"github.com/marine-obs/plet-harvester/internal/storage/gcs"
	"github.com/marine-obs/plet-harvester/internal/storage/local"
)

func newExportCmd() *cobra.Command {
	var (
		dirFlag    string
		outFlag    string
		uploadFlag bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Merges harvested CSV files into a single artifact",
		Long: `Concatenates every harvested CSV in the cache directory into one
canonical CSV with dataset_name and region_id columns recovered from
the filenames. HTML error payloads are skipped. With --upload, the
merged file is also shipped to the configured blob store.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			dir := dirFlag
			if dir == "" {
				dir = app.Config.Harvest.OutDir
			}

			merged, err := export.Merge(dir, app.Logger)
			if err != nil {
				return err
			}
			if err := merged.WriteCSV(outFlag); err != nil {
				return err
			}
			fmt.Printf("merged %d files (%d rows) into %s\n", merged.Files, len(merged.Rows), outFlag)

			if !uploadFlag {
				return nil
			}
			store, err := buildBlobStore(cmd.Context(), app.Config)
			if err != nil {
				return err
			}
			object := path.Join(app.Config.Storage.Prefix, path.Base(outFlag))
			uri, err := export.Upload(cmd.Context(), store, outFlag, object)
			if err != nil {
				return err
			}
			fmt.Printf("uploaded to %s\n", uri)
			return nil
		},
	}

	cmd.Flags().StringVar(&dirFlag, "dir", "", "harvest directory to merge (default: harvest.out_dir)")
	cmd.Flags().StringVar(&outFlag, "out", "merged.csv", "merged CSV output path")
	cmd.Flags().BoolVar(&uploadFlag, "upload", false, "upload the merged file to the configured blob store")

	return cmd
}

func buildBlobStore(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Provider {
	case "gcs":
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		return gcs.New(client, gcs.Config{Bucket: cfg.Storage.GCSBucket})
	default:
		return local.New(local.Config{BaseDir: cfg.Storage.LocalDir})
	}
}
