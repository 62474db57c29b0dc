package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"posebvh/internal/validate"
)

func checkCmd() *cobra.Command {
	var landmarks bool
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "check <frames.json>",
		Short: "Report missing, unknown or out-of-range joints in a capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], landmarks, asJSON)
		},
	}
	cmd.Flags().BoolVar(&landmarks, "landmarks", false, "Read JSON lines of pose landmarks instead of joint frames")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func runCheck(cmd *cobra.Command, input string, landmarks, asJSON bool) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	frames, err := readFrames(cmd, cfg, input, landmarks)
	if err != nil {
		return err
	}

	report, err := validate.Run(frames)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}

	if report.HasErrors() {
		return fmt.Errorf("capture check found errors")
	}
	return nil
}

func printReport(out io.Writer, report *validate.Report) {
	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintf(out, "No issues found in %d frames.\n", report.Frames)
		return
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(out, "Errors (%d):\n", len(errorIssues))
		printIssues(out, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(out, "")
		}
		fmt.Fprintf(out, "Warnings (%d):\n", len(warnIssues))
		printIssues(out, warnIssues)
	}
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		fmt.Fprintf(out, "  - %s (frame %d): %s (%s)\n", issue.Joint, issue.Frame, issue.Message, issue.Code)
	}
}
