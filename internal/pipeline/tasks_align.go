package pipeline

import (
	"context"

	"github.com/dennisaldea/chipseqpipe/internal/fileutil"
	"github.com/dennisaldea/chipseqpipe/internal/layout"
	"github.com/dennisaldea/chipseqpipe/internal/services"
	"github.com/dennisaldea/chipseqpipe/internal/toolrun"
	"github.com/dennisaldea/chipseqpipe/internal/tools/bowtie2"
	"github.com/dennisaldea/chipseqpipe/internal/tools/samtools"
)

// alignTasks builds one task per replicate chaining Bowtie2 with the
// samtools SAM-to-sorted-BAM conversion. The conversion consumes the aligner
// output within the same task, which is why the stage runs group-sequential:
// one aligner per group at a time, groups concurrent.
func (p *Pipeline) alignTasks() ([]Task, error) {
	genome, err := p.cfg.SelectedGenome()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, StageAlign, "resolve genome", "", err)
	}

	tasks := make([]Task, 0, len(p.lay.ReplicateCoordinates()))
	for _, coord := range p.lay.ReplicateCoordinates() {
		coord := coord
		trimmed1, err := p.lay.Path(coord, layout.ArtifactTrimmedReads, layout.RoleRead1)
		if err != nil {
			return nil, err
		}
		trimmed2, err := p.lay.Path(coord, layout.ArtifactTrimmedReads, layout.RoleRead2)
		if err != nil {
			return nil, err
		}
		sam, err := p.lay.Path(coord, layout.ArtifactSAM, layout.RoleNone)
		if err != nil {
			return nil, err
		}
		bam, err := p.lay.Path(coord, layout.ArtifactBAM, layout.RoleNone)
		if err != nil {
			return nil, err
		}
		logPath, err := p.lay.LogPath(coord, StageAlign)
		if err != nil {
			return nil, err
		}
		// The unsorted BAM is transient and deliberately outside the
		// artifact scheme so Parse never claims it.
		unsorted := bam + ".unsorted"

		tasks = append(tasks, Task{
			Stage: StageAlign,
			Coord: coord,
			Tool:  bowtie2.Tool,
			Run: func(ctx context.Context) (toolrun.Result, error) {
				if err := toolrun.RequireInputs("align trimmed reads", trimmed1, trimmed2); err != nil {
					return toolrun.Result{}, err
				}

				parser := &bowtie2.RateParser{}
				inv := bowtie2.Command(p.cfg.Tools.Bowtie2, genome.Bowtie2Index, p.cfg.Alignment.Preset,
					p.cfg.Alignment.Threads, trimmed1, trimmed2, sam)
				inv.LogPath = logPath
				res, err := p.runner.Run(ctx, inv, parser.Line)
				if err != nil {
					return res, err
				}
				if rate, ok := parser.Rate(); ok {
					p.setAlignmentRate(coord, rate)
				}

				view := samtools.View(p.cfg.Tools.Samtools, p.cfg.Samtools.Threads, sam, unsorted)
				view.LogPath = logPath
				view.AppendLog = true
				if res, err = p.runner.Run(ctx, view, nil); err != nil {
					return res, err
				}

				sort := samtools.Sort(p.cfg.Tools.Samtools, p.cfg.Samtools.Threads, unsorted, bam)
				sort.LogPath = logPath
				sort.AppendLog = true
				if res, err = p.runner.Run(ctx, sort, nil); err != nil {
					return res, err
				}

				// The SAM only goes away once the sorted BAM is provably
				// on disk.
				if err := fileutil.ConfirmWritten(bam); err != nil {
					return res, services.Wrap(services.ErrInternal, StageAlign, "confirm sorted alignment", "", err)
				}
				if err := fileutil.RemoveIfPresent(unsorted); err != nil {
					return res, services.Wrap(services.ErrInternal, StageAlign, "remove unsorted alignment", "", err)
				}
				if !p.cfg.Alignment.KeepSAM {
					if err := fileutil.RemoveIfPresent(sam); err != nil {
						return res, services.Wrap(services.ErrInternal, StageAlign, "remove alignment text", "", err)
					}
				}
				return res, nil
			},
		})
	}
	return tasks, nil
}

// mergeTasks builds, per group, one index task per replicate BAM plus the
// group's aggregate merge-and-index task. The scheduler's aggregate mode
// guarantees the merge never starts before every sibling index finished.
func (p *Pipeline) mergeTasks() ([]Task, error) {
	var tasks []Task
	for _, group := range p.lay.Groups() {
		replicates, err := p.lay.GroupReplicates(group)
		if err != nil {
			return nil, err
		}

		replicateBAMs := make([]string, 0, len(replicates))
		for _, coord := range replicates {
			bam, err := p.lay.Path(coord, layout.ArtifactBAM, layout.RoleNone)
			if err != nil {
				return nil, err
			}
			logPath, err := p.lay.LogPath(coord, StageMerge)
			if err != nil {
				return nil, err
			}
			replicateBAMs = append(replicateBAMs, bam)

			tasks = append(tasks, Task{
				Stage: StageMerge,
				Coord: coord,
				Tool:  samtools.Tool,
				Run: func(ctx context.Context) (toolrun.Result, error) {
					if err := toolrun.RequireInputs("index replicate alignment", bam); err != nil {
						return toolrun.Result{}, err
					}
					inv := samtools.Index(p.cfg.Tools.Samtools, p.cfg.Samtools.Threads, bam)
					inv.LogPath = logPath
					return p.runner.Run(ctx, inv, nil)
				},
			})
		}

		merged := layout.Merged(group)
		mergedBAM, err := p.lay.Path(merged, layout.ArtifactBAM, layout.RoleNone)
		if err != nil {
			return nil, err
		}
		mergedLog, err := p.lay.LogPath(merged, StageMerge)
		if err != nil {
			return nil, err
		}
		inputs := replicateBAMs

		tasks = append(tasks, Task{
			Stage: StageMerge,
			Coord: merged,
			Tool:  samtools.Tool,
			Run: func(ctx context.Context) (toolrun.Result, error) {
				if err := toolrun.RequireInputs("merge replicate alignments", inputs...); err != nil {
					return toolrun.Result{}, err
				}
				inv := samtools.Merge(p.cfg.Tools.Samtools, p.cfg.Samtools.Threads, mergedBAM, inputs...)
				inv.LogPath = mergedLog
				res, err := p.runner.Run(ctx, inv, nil)
				if err != nil {
					return res, err
				}

				index := samtools.Index(p.cfg.Tools.Samtools, p.cfg.Samtools.Threads, mergedBAM)
				index.LogPath = mergedLog
				index.AppendLog = true
				return p.runner.Run(ctx, index, nil)
			},
		})
	}
	return tasks, nil
}
