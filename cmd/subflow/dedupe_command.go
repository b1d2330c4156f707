package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subflow/internal/srt"
	"subflow/internal/timedtext"
)

func newDedupeCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:         "dedupe <subtitle-file>",
		Short:       "Remove phantom and overlapping cues from an SRT file",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read subtitle file: %w", err)
			}
			spans, err := srt.Parse(data)
			if err != nil {
				return fmt.Errorf("parse subtitle file: %w", err)
			}

			result := timedtext.Dedupe(spans)
			formatted := srt.Format(result.Spans)

			target := strings.TrimSpace(outputPath)
			if target == "" {
				if _, err := cmd.OutOrStdout().Write(formatted); err != nil {
					return err
				}
			} else if err := os.WriteFile(target, formatted, 0o644); err != nil {
				return fmt.Errorf("write deduplicated file: %w", err)
			}

			fmt.Fprintln(cmd.ErrOrStderr(), renderTable(
				[]string{"CUES IN", "REMOVED", "CUES OUT"},
				[][]string{{
					strconv.Itoa(result.OriginalCount),
					strconv.Itoa(result.RemovedCount),
					strconv.Itoa(len(result.Spans)),
				}},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write result to a file instead of stdout")
	return cmd
}
