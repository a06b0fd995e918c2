package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"tunesync/internal/logging"
	"tunesync/internal/logs"
	"tunesync/internal/services"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var poll time.Duration

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the tunesync log file",
		Long: `Show the newest lines of the log file written under paths.log_dir.

With --follow, keep printing lines as they are appended until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.LogDir == "" {
				return services.Wrap(services.ErrConfiguration, "cli", "logs",
					"paths.log_dir is not set; logs only go to the console", nil)
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.FileName)

			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, poll, func(line string) error {
				_, err := fmt.Fprintln(out, line)
				return err
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().DurationVar(&poll, "poll", logs.DefaultPollInterval, "How often to check for new lines while following")
	return cmd
}
