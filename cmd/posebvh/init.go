package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var projectName string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a posebvh.yaml project config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				projectName = filepath.Base(wd)
			}
			if err := runInit(configPath, projectName); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", configPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name (default: current directory name)")
	return cmd
}

const configTemplate = `project: %q
version: 1

encoder:
  frame_rate: 30
  scale: 200

server:
  addr: ":3000"
  static_dir: ./public
  max_body_bytes: 524288000
  shutdown_timeout_s: 5

database:
  dsn: sqlite://posebvh.db

mqtt:
  broker: ""
  topic: posebvh/exports
  qos: 1

capture:
  paths:
    - ./captures/
  exclude:
    - ./captures/raw/
`

func runInit(path, projectName string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	contents := fmt.Sprintf(configTemplate, projectName)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
