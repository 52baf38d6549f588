package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"smellfix/internal/archive"
	"smellfix/internal/ccnreport"
)

func newCCNReportCmd() *cobra.Command {
	var in, out string
	var upload bool
	cmd := &cobra.Command{
		Use:   "ccn-report",
		Short: "Convert a Lizard complexity report into an xlsx spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				return fmt.Errorf("--in required")
			}
			rows, err := ccnreport.Convert(in, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "CCN extracted for %d function(s) and saved in %s\n", len(rows), out)
			if !upload {
				return nil
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store := openArchive(cfg)
			if store == nil {
				log.Printf("[archive] warn: no archive endpoint configured; skipping upload")
				return nil
			}
			b, err := os.ReadFile(out)
			if err != nil {
				return err
			}
			runID := archive.NewRunID(time.Now())
			if err := store.Put(cmd.Context(), runID, filepath.Base(out), b); err != nil {
				log.Printf("[archive] warn: upload %s: %v", out, err)
				return nil
			}
			log.Printf("[archive] uploaded %s/%s", runID, filepath.Base(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "Lizard text report")
	cmd.Flags().StringVar(&out, "out", "cc.xlsx", "Spreadsheet to write")
	cmd.Flags().BoolVar(&upload, "archive", false, "Upload the spreadsheet to the run archive")
	return cmd
}
