package pipeline

import (
	"context"
	"path/filepath"

	"github.com/dennisaldea/chipseqpipe/internal/fileutil"
	"github.com/dennisaldea/chipseqpipe/internal/layout"
	"github.com/dennisaldea/chipseqpipe/internal/services"
	"github.com/dennisaldea/chipseqpipe/internal/toolrun"
	"github.com/dennisaldea/chipseqpipe/internal/tools/fastqc"
	"github.com/dennisaldea/chipseqpipe/internal/tools/ngmerge"
)

func (p *Pipeline) qcRawTasks() ([]Task, error) {
	return p.qcTasks(StageQCRaw, layout.ArtifactRawReads)
}

func (p *Pipeline) qcTrimmedTasks() ([]Task, error) {
	return p.qcTasks(StageQCTrimmed, layout.ArtifactTrimmedReads)
}

// qcTasks builds one FastQC task per replicate covering both read files.
func (p *Pipeline) qcTasks(stage string, artifact layout.Artifact) ([]Task, error) {
	tasks := make([]Task, 0, len(p.lay.ReplicateCoordinates()))
	for _, coord := range p.lay.ReplicateCoordinates() {
		read1, err := p.lay.Path(coord, artifact, layout.RoleRead1)
		if err != nil {
			return nil, err
		}
		read2, err := p.lay.Path(coord, artifact, layout.RoleRead2)
		if err != nil {
			return nil, err
		}
		dir, err := p.lay.Dir(coord)
		if err != nil {
			return nil, err
		}
		logPath, err := p.lay.LogPath(coord, stage)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, Task{
			Stage: stage,
			Coord: coord,
			Tool:  fastqc.Tool,
			Run: func(ctx context.Context) (toolrun.Result, error) {
				if err := toolrun.RequireInputs("quality check reads", read1, read2); err != nil {
					return toolrun.Result{}, err
				}
				inv := fastqc.Command(p.cfg.Tools.FastQC, dir, 2, read1, read2)
				inv.LogPath = logPath
				return p.runner.Run(ctx, inv, nil)
			},
		})
	}
	return tasks, nil
}

// trimTasks builds one NGmerge adapter-removal task per replicate. NGmerge
// names its outputs itself, so the task renames them onto the canonical
// trimmed-read paths afterwards.
func (p *Pipeline) trimTasks() ([]Task, error) {
	tasks := make([]Task, 0, len(p.lay.ReplicateCoordinates()))
	for _, coord := range p.lay.ReplicateCoordinates() {
		raw1, err := p.lay.Path(coord, layout.ArtifactRawReads, layout.RoleRead1)
		if err != nil {
			return nil, err
		}
		raw2, err := p.lay.Path(coord, layout.ArtifactRawReads, layout.RoleRead2)
		if err != nil {
			return nil, err
		}
		trimmed1, err := p.lay.Path(coord, layout.ArtifactTrimmedReads, layout.RoleRead1)
		if err != nil {
			return nil, err
		}
		trimmed2, err := p.lay.Path(coord, layout.ArtifactTrimmedReads, layout.RoleRead2)
		if err != nil {
			return nil, err
		}
		dir, err := p.lay.Dir(coord)
		if err != nil {
			return nil, err
		}
		logPath, err := p.lay.LogPath(coord, StageTrim)
		if err != nil {
			return nil, err
		}
		prefix := filepath.Join(dir, coord.Stem()+"_trim")

		tasks = append(tasks, Task{
			Stage: StageTrim,
			Coord: coord,
			Tool:  ngmerge.Tool,
			Run: func(ctx context.Context) (toolrun.Result, error) {
				if err := toolrun.RequireInputs("trim raw reads", raw1, raw2); err != nil {
					return toolrun.Result{}, err
				}
				inv := ngmerge.Command(p.cfg.Tools.NGmerge, raw1, raw2, prefix, 0)
				inv.LogPath = logPath
				res, err := p.runner.Run(ctx, inv, nil)
				if err != nil {
					return res, err
				}

				got1, got2 := ngmerge.OutputNames(prefix)
				if err := fileutil.ReplaceFile(got1, trimmed1); err != nil {
					return res, services.Wrap(services.ErrInternal, StageTrim, "rename trimmed reads", "", err)
				}
				if err := fileutil.ReplaceFile(got2, trimmed2); err != nil {
					return res, services.Wrap(services.ErrInternal, StageTrim, "rename trimmed reads", "", err)
				}
				return res, nil
			},
		})
	}
	return tasks, nil
}
