package main

import (
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"posebvh/internal/export"
	"posebvh/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
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
	server := mcp.NewServer(svc, db, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
