package main

import (
	"errors"
	"os"

	"github.com/samber/do"
	"github.com/spf13/cobra"
	"github.com/stocktake-io/stocktake/internal/bootstrap"
	"github.com/stocktake-io/stocktake/internal/infra/blob"
	"github.com/stocktake-io/stocktake/internal/modules/importer"
	"go.uber.org/zap"
)

func main() {
	var (
		dir      string
		s3Prefix string
	)

	root := &cobra.Command{
		Use:   "stocktake-import",
		Short: "Replay JSON dataset files into the asset tracker",
		Long: "Reads changeset dataset files from a local directory or an S3 prefix " +
			"and reconciles them into the store. Imports are re-runnable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			inj := bootstrap.BuildContainer()
			log := do.MustInvoke[*zap.Logger](inj)
			rec := do.MustInvoke[*importer.Reconciler](inj)

			var src importer.Source
			switch {
			case dir != "":
				src = importer.DirSource{Dir: dir}
			case s3Prefix != "":
				s3 := do.MustInvoke[*blob.S3Deps](inj)
				if s3 == nil {
					return errors.New("s3 source requested but s3 is not configured")
				}
				src = importer.S3Source{Blob: s3, Prefix: s3Prefix}
			default:
				return errors.New("one of --dir or --s3-prefix is required")
			}

			if err := rec.Run(cmd.Context(), src); err != nil {
				log.Error("import failed", zap.Error(err))
				return err
			}
			log.Info("import finished")
			return nil
		},
	}

	root.Flags().StringVar(&dir, "dir", "", "local directory of dataset .json files")
	root.Flags().StringVar(&s3Prefix, "s3-prefix", "", "S3 key prefix of dataset files (bucket from config)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
