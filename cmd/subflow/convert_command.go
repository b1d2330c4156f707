package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"subflow/internal/config"
	"subflow/internal/srt"
	"subflow/internal/subtitles"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "convert <subtitle-file>",
		Short: "Convert an SRT file to styled ASS markup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read subtitle file: %w", err)
			}
			spans, err := srt.Parse(data)
			if err != nil {
				return fmt.Errorf("parse subtitle file: %w", err)
			}

			markup := subtitles.FormatASS(spans, styleFromConfig(cfg))

			target := strings.TrimSpace(outputPath)
			if target == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), markup)
				return err
			}
			if err := os.WriteFile(target, []byte(markup), 0o644); err != nil {
				return fmt.Errorf("write converted file: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write result to a file instead of stdout")
	return cmd
}

func styleFromConfig(cfg *config.Config) subtitles.Style {
	style := subtitles.DefaultStyle()
	if cfg.Render.FontName != "" {
		style.FontName = cfg.Render.FontName
	}
	if cfg.Render.FontSize > 0 {
		style.FontSize = cfg.Render.FontSize
	}
	if cfg.Render.PrimaryColor != "" {
		style.PrimaryColor = cfg.Render.PrimaryColor
	}
	if cfg.Render.OutlineColor != "" {
		style.OutlineColor = cfg.Render.OutlineColor
	}
	return style
}
