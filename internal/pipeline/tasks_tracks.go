package pipeline

import (
	"context"

	"github.com/dennisaldea/chipseqpipe/internal/centering"
	"github.com/dennisaldea/chipseqpipe/internal/fileutil"
	"github.com/dennisaldea/chipseqpipe/internal/layout"
	"github.com/dennisaldea/chipseqpipe/internal/logging"
	"github.com/dennisaldea/chipseqpipe/internal/services"
	"github.com/dennisaldea/chipseqpipe/internal/toolrun"
	"github.com/dennisaldea/chipseqpipe/internal/tools/deeptools"
	"github.com/dennisaldea/chipseqpipe/internal/tools/macs2"
	"github.com/dennisaldea/chipseqpipe/internal/tools/sitepro"
)

// coverageTasks builds one bamCoverage task for every coordinate, replicates
// and merged aggregates alike.
func (p *Pipeline) coverageTasks() ([]Task, error) {
	tasks := make([]Task, 0, len(p.lay.AllCoordinates()))
	for _, coord := range p.lay.AllCoordinates() {
		bam, err := p.lay.Path(coord, layout.ArtifactBAM, layout.RoleNone)
		if err != nil {
			return nil, err
		}
		bamIndex, err := p.lay.Path(coord, layout.ArtifactBAMIndex, layout.RoleNone)
		if err != nil {
			return nil, err
		}
		bigwig, err := p.lay.Path(coord, layout.ArtifactCoverage, layout.RoleNone)
		if err != nil {
			return nil, err
		}
		logPath, err := p.lay.LogPath(coord, StageCoverage)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, Task{
			Stage: StageCoverage,
			Coord: coord,
			Tool:  deeptools.Tool,
			Run: func(ctx context.Context) (toolrun.Result, error) {
				if err := toolrun.RequireInputs("build coverage track", bam, bamIndex); err != nil {
					return toolrun.Result{}, err
				}
				inv := deeptools.BamCoverage(p.cfg.Tools.BamCoverage, bam, bigwig,
					p.cfg.Coverage.BinSize, p.cfg.Coverage.Normalize, p.cfg.Coverage.Processors)
				inv.LogPath = logPath
				return p.runner.Run(ctx, inv, nil)
			},
		})
	}
	return tasks, nil
}

// callPeaksTasks builds one MACS2 callpeak task per coordinate. MACS2 names
// its outputs from the sample stem, so the task renames them onto the
// canonical peak and summit paths and drops the leftovers.
func (p *Pipeline) callPeaksTasks() ([]Task, error) {
	genome, err := p.cfg.SelectedGenome()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, StageCallPeaks, "resolve genome", "", err)
	}

	tasks := make([]Task, 0, len(p.lay.AllCoordinates()))
	for _, coord := range p.lay.AllCoordinates() {
		bam, err := p.lay.Path(coord, layout.ArtifactBAM, layout.RoleNone)
		if err != nil {
			return nil, err
		}
		peaks, err := p.lay.Path(coord, layout.ArtifactPeaks, layout.RoleNone)
		if err != nil {
			return nil, err
		}
		summits, err := p.lay.Path(coord, layout.ArtifactSummits, layout.RoleNone)
		if err != nil {
			return nil, err
		}
		dir, err := p.lay.Dir(coord)
		if err != nil {
			return nil, err
		}
		logPath, err := p.lay.LogPath(coord, StageCallPeaks)
		if err != nil {
			return nil, err
		}
		name := coord.Stem()

		tasks = append(tasks, Task{
			Stage: StageCallPeaks,
			Coord: coord,
			Tool:  macs2.Tool,
			Run: func(ctx context.Context) (toolrun.Result, error) {
				if err := toolrun.RequireInputs("call peaks", bam); err != nil {
					return toolrun.Result{}, err
				}
				inv := macs2.CallPeak(p.cfg.Tools.MACS2, bam, name, dir, genome.MACS2GSize, p.cfg.Peaks.QValue)
				inv.LogPath = logPath
				res, err := p.runner.Run(ctx, inv, nil)
				if err != nil {
					return res, err
				}

				narrowPeak, summitsBed := macs2.OutputNames(dir, name)
				if err := fileutil.ReplaceFile(narrowPeak, peaks); err != nil {
					return res, services.Wrap(services.ErrInternal, StageCallPeaks, "rename peak calls", "", err)
				}
				if err := fileutil.ReplaceFile(summitsBed, summits); err != nil {
					return res, services.Wrap(services.ErrInternal, StageCallPeaks, "rename peak summits", "", err)
				}
				for _, extra := range macs2.Extras(dir, name) {
					if err := fileutil.RemoveIfPresent(extra); err != nil {
						return res, services.Wrap(services.ErrInternal, StageCallPeaks, "remove callpeak extras", "", err)
					}
				}
				return res, nil
			},
		})
	}
	return tasks, nil
}

// centerTasks builds the summit-centering derivations: one task per
// coordinate and span width. No external tool runs here.
func (p *Pipeline) centerTasks() ([]Task, error) {
	var tasks []Task
	for _, coord := range p.lay.AllCoordinates() {
		summits, err := p.lay.Path(coord, layout.ArtifactSummits, layout.RoleNone)
		if err != nil {
			return nil, err
		}
		for _, role := range layout.SpanRoles() {
			out, err := p.lay.Path(coord, layout.ArtifactCenteredBED, role)
			if err != nil {
				return nil, err
			}
			width, err := layout.SpanWidth(role)
			if err != nil {
				return nil, err
			}

			tasks = append(tasks, Task{
				Stage: StageCenter,
				Coord: coord,
				Role:  role,
				Run: func(ctx context.Context) (toolrun.Result, error) {
					if err := toolrun.RequireInputs("center peak summits", summits); err != nil {
						return toolrun.Result{}, err
					}
					windows, err := centering.DeriveWindows(summits, out, width)
					if err != nil {
						return toolrun.Result{}, err
					}
					logging.WithContext(ctx, p.logger).Debug("derived centered windows",
						logging.Int("windows", windows),
						logging.Int("width", width),
					)
					return toolrun.Result{}, nil
				},
			})
		}
	}
	return tasks, nil
}

// plotTasks builds one siteproBW task per coordinate covering both span
// widths. The spans run back to back inside the task because they share the
// coordinate's plot log; siteproBW also writes into its working directory
// under a name of its own choosing, so each span run pins the working
// directory and gathers the newest plot for the canonical rename.
func (p *Pipeline) plotTasks() ([]Task, error) {
	tasks := make([]Task, 0, len(p.lay.AllCoordinates()))
	for _, coord := range p.lay.AllCoordinates() {
		bigwig, err := p.lay.Path(coord, layout.ArtifactCoverage, layout.RoleNone)
		if err != nil {
			return nil, err
		}
		dir, err := p.lay.Dir(coord)
		if err != nil {
			return nil, err
		}
		logPath, err := p.lay.LogPath(coord, StagePlot)
		if err != nil {
			return nil, err
		}

		type span struct {
			bed   string
			plot  string
			label string
			flank int
		}
		spans := make([]span, 0, len(layout.SpanRoles()))
		for _, role := range layout.SpanRoles() {
			bed, err := p.lay.Path(coord, layout.ArtifactCenteredBED, role)
			if err != nil {
				return nil, err
			}
			plot, err := p.lay.Path(coord, layout.ArtifactProfilePlot, role)
			if err != nil {
				return nil, err
			}
			width, err := layout.SpanWidth(role)
			if err != nil {
				return nil, err
			}
			spans = append(spans, span{
				bed:   bed,
				plot:  plot,
				label: coord.Stem() + "_" + string(role),
				flank: width / 2,
			})
		}

		tasks = append(tasks, Task{
			Stage: StagePlot,
			Coord: coord,
			Tool:  sitepro.Tool,
			Run: func(ctx context.Context) (toolrun.Result, error) {
				var res toolrun.Result
				for i, sp := range spans {
					if err := toolrun.RequireInputs("plot coverage profile", bigwig, sp.bed); err != nil {
						return res, err
					}
					inv := sitepro.Profile(p.cfg.Tools.SiteproBW, bigwig, sp.bed, sp.label, sp.flank)
					inv.Dir = dir
					inv.LogPath = logPath
					inv.AppendLog = i > 0
					var err error
					if res, err = p.runner.Run(ctx, inv, nil); err != nil {
						return res, err
					}

					produced, err := sitepro.FindOutput(dir, sp.label)
					if err != nil {
						return res, err
					}
					if err := fileutil.ReplaceFile(produced, sp.plot); err != nil {
						return res, services.Wrap(services.ErrInternal, StagePlot, "rename profile plot", "", err)
					}
				}
				return res, nil
			},
		})
	}
	return tasks, nil
}
