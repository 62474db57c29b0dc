package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"posebvh/internal/bvh"
	"posebvh/internal/config"
	"posebvh/internal/export"
	"posebvh/internal/parser"
	"posebvh/internal/pose"
	"posebvh/internal/store"
)

func encodeCmd() *cobra.Command {
	var output string
	var landmarks bool
	cmd := &cobra.Command{
		Use:   "encode <frames.json>",
		Short: "Encode a capture file into BVH (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(cmd, args[0], output, landmarks)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&landmarks, "landmarks", false, "Read JSON lines of pose landmarks instead of joint frames")
	return cmd
}

func runEncode(cmd *cobra.Command, input, output string, landmarks bool) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	frames, err := readFrames(cmd, cfg, input, landmarks)
	if err != nil {
		return err
	}

	if output == "" {
		return cfg.BVHEncoder().EncodeTo(cmd.OutOrStdout(), frames)
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
	result, err := svc.Save(ctx, frames, output, store.SourceCLI)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d frames, %d bytes)\n", result.Path, result.Frames, len(result.Document))
	return nil
}

func readFrames(cmd *cobra.Command, cfg *config.Config, input string, landmarks bool) ([]bvh.Frame, error) {
	var r io.Reader = cmd.InOrStdin()
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	if landmarks {
		frames, err := pose.Record(cmd.Context(), pose.NewJSONLSource(r), cfg.Landmarks, 0)
		if err != nil {
			return nil, fmt.Errorf("reading landmarks from %s: %w", input, err)
		}
		if len(frames) == 0 {
			return nil, fmt.Errorf("reading landmarks from %s: %w", input, bvh.ErrEmptyInput)
		}
		return frames, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	capture, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", input, err)
	}
	return capture.Frames, nil
}
