package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dennisaldea/chipseqpipe/internal/layout"
	"github.com/dennisaldea/chipseqpipe/internal/logs"
	"github.com/dennisaldea/chipseqpipe/internal/pipeline"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var tail int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs <group> [replicate] <stage>",
		Short: "Print or follow one sample's stage log",
		Long: "Print the stage log for one sample coordinate. With two arguments the\n" +
			"group's merged aggregate is addressed; with three, one replicate.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			coord := layout.Coordinate{Group: args[0]}
			stage := args[1]
			if len(args) == 3 {
				coord.Replicate = args[1]
				stage = args[2]
			}
			if _, err := pipeline.StageByName(stage); err != nil {
				return err
			}

			lay, err := layout.New(cfg)
			if err != nil {
				return err
			}
			path, err := lay.LogPath(coord, stage)
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			opts := logs.TailOptions{Tail: tail, Follow: follow}
			err = logs.Print(signalCtx, path, cmd.OutOrStdout(), opts)
			if follow && errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&tail, "tail", "n", 0, "Print only the last N lines")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming appended lines")
	return cmd
}
