package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subflow/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetPath, "path", "", "Destination path for the sample configuration")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"paths.staging_dir", cfg.Paths.StagingDir},
				{"paths.output_dir", cfg.Paths.OutputDir},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"paths.checkpoint_dir", cfg.Paths.CheckpointDir},
				{"job.target_language", cfg.Job.TargetLanguage},
				{"job.caption_language", cfg.Job.CaptionLanguage},
				{"job.download_format", cfg.Job.DownloadFormat},
				{"transcription.model", cfg.Transcription.Model},
				{"transcription.max_no_speech_prob", strconv.FormatFloat(cfg.Transcription.MaxNoSpeechProb, 'f', -1, 64)},
				{"translation.base_url", cfg.Translation.BaseURL},
				{"translation.timeout_seconds", strconv.Itoa(cfg.Translation.TimeoutSeconds)},
				{"render.encoder", cfg.Render.Encoder},
				{"render.font_name", cfg.Render.FontName},
				{"render.font_size", strconv.Itoa(cfg.Render.FontSize)},
				{"workflow.event_buffer_size", strconv.Itoa(cfg.Workflow.EventBufferSize)},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"SETTING", "VALUE"}, rows))
			return nil
		},
	}
}
