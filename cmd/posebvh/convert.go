package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"posebvh/internal/export"
	"posebvh/internal/ingest"
)

var convertFull bool

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert the configured capture files into BVH files",
		Args:  cobra.NoArgs,
		RunE:  runConvert,
	}
	cmd.Flags().BoolVar(&convertFull, "full", false, "Convert every capture (ignore incremental hashes)")
	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Capture.Paths) == 0 {
		return fmt.Errorf("no capture paths configured in %s", configPath)
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close(ctx)
	}
	notifier := openNotifier(cfg)
	defer notifier.Close()

	svc := export.NewService(cfg.BVHEncoder(), export.WithStore(db), export.WithNotifier(notifier))
	result, err := ingest.Run(ctx, cfg, svc, db, ingest.Options{Full: convertFull})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Conversion complete.")
	fmt.Fprintf(out, "  Files converted: %d\n", result.Converted)
	fmt.Fprintf(out, "  Files skipped:   %d\n", result.Skipped)
	fmt.Fprintf(out, "  Records removed: %d\n", result.Removed)

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(out, "  - %v\n", item)
		}
		return fmt.Errorf("conversion completed with errors")
	}

	return nil
}
