package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dennisaldea/chipseqpipe/internal/pipeline"
)

var stageShortHelp = map[string]string{
	pipeline.StageQCRaw:     "Run FastQC on raw reads",
	pipeline.StageTrim:      "Trim adapters from paired reads with NGmerge",
	pipeline.StageQCTrimmed: "Run FastQC on trimmed reads",
	pipeline.StageAlign:     "Align trimmed reads with Bowtie2",
	pipeline.StageMerge:     "Merge replicate alignments per group",
	pipeline.StageCoverage:  "Generate bigWig coverage tracks",
	pipeline.StageCallPeaks: "Call peaks with MACS2",
	pipeline.StageCenter:    "Derive centered windows around peak summits",
	pipeline.StagePlot:      "Plot signal profiles around peak centers",
}

// newStageCommands builds one subcommand per pipeline stage so any stage can
// be re-run on its own. Stage re-runs skip preflight: an operator re-running
// center should not be blocked by a missing fastqc binary.
func newStageCommands(ctx *commandContext) []*cobra.Command {
	names := pipeline.StageNames()
	commands := make([]*cobra.Command, 0, len(names))
	for _, name := range names {
		if name == pipeline.StageAlign {
			commands = append(commands, newAlignCommand(ctx))
			continue
		}
		commands = append(commands, newStageCommand(ctx, name))
	}
	return commands
}

func newStageCommand(ctx *commandContext, stage string) *cobra.Command {
	short := stageShortHelp[stage]
	if short == "" {
		short = fmt.Sprintf("Run the %s stage", pipeline.Label(stage))
	}
	return &cobra.Command{
		Use:   stage,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executePipeline(cmd, ctx, stage)
		},
	}
}

func newAlignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "align [genome]",
		Short: stageShortHelp[pipeline.StageAlign],
		Long: "Align trimmed reads with Bowtie2. An optional genome argument overrides\n" +
			"alignment.genome for this run; it must name a genome from the [genomes]\n" +
			"configuration table.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if _, err := cfg.GenomeByName(args[0]); err != nil {
					return err
				}
				cfg.Alignment.Genome = args[0]
			}
			return executePipeline(cmd, ctx, pipeline.StageAlign)
		},
	}
}
