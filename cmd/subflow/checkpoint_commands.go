package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"subflow/internal/checkpoint"
)

func newCheckpointCommand(ctx *commandContext) *cobra.Command {
	checkpointCmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect and manage saved job checkpoints",
	}

	checkpointCmd.AddCommand(newCheckpointShowCommand(ctx))
	checkpointCmd.AddCommand(newCheckpointClearCommand(ctx))

	return checkpointCmd
}

func newCheckpointShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List saved checkpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := checkpoint.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			checkpoints, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(checkpoints) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No checkpoints saved.")
				return nil
			}

			now := time.Now()
			rows := make([][]string, 0, len(checkpoints))
			for _, cp := range checkpoints {
				status := "resumable"
				if err := cp.Validate(now); err != nil {
					status = "invalid"
				}
				rows = append(rows, []string{
					cp.JobID,
					cp.LastCompletedStage.Label(),
					cp.TargetLanguage,
					cp.CreatedAt.Local().Format("2006-01-02 15:04"),
					status,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"JOB", "LAST STAGE", "TARGET", "SAVED", "STATUS"},
				rows,
			))
			return nil
		},
	}
}

func newCheckpointClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <job-id>",
		Short: "Delete the checkpoint for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := checkpoint.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared checkpoint for job %s\n", args[0])
			return nil
		},
	}
}
