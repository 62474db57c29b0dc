package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent BVH exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of exports (0 for all)")
	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("export history is disabled: set database.dsn in %s", configPath)
	}
	defer db.Close(ctx)

	exports, err := db.ListExports(ctx, limit)
	if err != nil {
		return err
	}
	if len(exports) == 0 {
		fmt.Fprintln(out, "No exports found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tID\tFILE\tFRAMES\tBYTES\tSOURCE")
	for _, e := range exports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.ID,
			e.FileName,
			e.Frames,
			e.Bytes,
			e.Source,
		)
	}
	return w.Flush()
}
