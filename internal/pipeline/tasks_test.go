package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dennisaldea/chipseqpipe/internal/config"
	"github.com/dennisaldea/chipseqpipe/internal/layout"
	"github.com/dennisaldea/chipseqpipe/internal/logging"
	"github.com/dennisaldea/chipseqpipe/internal/services"
	"github.com/dennisaldea/chipseqpipe/internal/testsupport"
	"github.com/dennisaldea/chipseqpipe/internal/toolrun"
	"github.com/dennisaldea/chipseqpipe/internal/tools/ngmerge"
)

// stubRunner records invocations instead of executing binaries. The onRun
// hook lets tests fabricate tool side effects such as output files.
type stubRunner struct {
	mu    sync.Mutex
	invs  []toolrun.Invocation
	onRun func(inv toolrun.Invocation, onLine func(string)) (toolrun.Result, error)
}

func (s *stubRunner) Run(_ context.Context, inv toolrun.Invocation, onLine func(string)) (toolrun.Result, error) {
	s.mu.Lock()
	s.invs = append(s.invs, inv)
	s.mu.Unlock()
	if s.onRun != nil {
		return s.onRun(inv, onLine)
	}
	return toolrun.Result{LogPath: inv.LogPath}, nil
}

func (s *stubRunner) invocations() []toolrun.Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]toolrun.Invocation(nil), s.invs...)
}

func newTestPipeline(t *testing.T, cfg *config.Config, runner toolrun.Runner) *Pipeline {
	t.Helper()
	p, err := NewWithRunner(cfg, nil, logging.NewNop(), runner)
	if err != nil {
		t.Fatalf("NewWithRunner: %v", err)
	}
	return p
}

func buildStage(t *testing.T, p *Pipeline, name string) []Task {
	t.Helper()
	st, err := StageByName(name)
	if err != nil {
		t.Fatalf("StageByName(%s): %v", name, err)
	}
	tasks, err := st.build(p)
	if err != nil {
		t.Fatalf("build %s tasks: %v", name, err)
	}
	return tasks
}

func mustPath(t *testing.T, p *Pipeline, coord layout.Coordinate, artifact layout.Artifact, role layout.Role) string {
	t.Helper()
	path, err := p.Layout().Path(coord, artifact, role)
	if err != nil {
		t.Fatalf("Path(%s, %s, %s): %v", coord, artifact, role, err)
	}
	return path
}

func argValue(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestQCRawTasksRunFastQCPerReplicate(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSamples([]string{"colon"}, []string{"1", "2"}))
	runner := &stubRunner{}
	p := newTestPipeline(t, cfg, runner)

	for _, coord := range p.Layout().ReplicateCoordinates() {
		testsupport.WriteFile(t, mustPath(t, p, coord, layout.ArtifactRawReads, layout.RoleRead1), 64)
		testsupport.WriteFile(t, mustPath(t, p, coord, layout.ArtifactRawReads, layout.RoleRead2), 64)
	}

	tasks := buildStage(t, p, StageQCRaw)
	if len(tasks) != 2 {
		t.Fatalf("expected one task per replicate, got %d", len(tasks))
	}
	for _, task := range tasks {
		if _, err := task.Run(context.Background()); err != nil {
			t.Fatalf("qc task for %s: %v", task.Coord, err)
		}
	}

	invs := runner.invocations()
	if len(invs) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(invs))
	}
	first := invs[0]
	if first.Tool != "fastqc" || first.Binary != cfg.Tools.FastQC {
		t.Fatalf("unexpected invocation %q via %q", first.Tool, first.Binary)
	}
	if !strings.HasSuffix(first.LogPath, "colon_1.qc-raw.log") {
		t.Fatalf("unexpected log path %q", first.LogPath)
	}
	if argValue(first.Args, "-o") == "" {
		t.Fatalf("fastqc args missing output directory: %v", first.Args)
	}
}

func TestQCTasksRequireReads(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSamples([]string{"colon"}, []string{"1"}))
	runner := &stubRunner{}
	p := newTestPipeline(t, cfg, runner)

	tasks := buildStage(t, p, StageQCRaw)
	_, err := tasks[0].Run(context.Background())
	if err == nil {
		t.Fatal("expected missing-input failure for absent reads")
	}
	if kind := services.Classify(err); kind != services.KindMissingInput {
		t.Fatalf("expected missing_input kind, got %s (%v)", kind, err)
	}
	if len(runner.invocations()) != 0 {
		t.Fatal("fastqc must not run when inputs are missing")
	}
}

func TestTrimTasksRenameOntoCanonicalPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSamples([]string{"colon"}, []string{"1"}))
	runner := &stubRunner{}
	runner.onRun = func(inv toolrun.Invocation, _ func(string)) (toolrun.Result, error) {
		got1, got2 := ngmerge.OutputNames(argValue(inv.Args, "-o"))
		testsupport.WriteFile(t, got1, 32)
		testsupport.WriteFile(t, got2, 32)
		return toolrun.Result{LogPath: inv.LogPath}, nil
	}
	p := newTestPipeline(t, cfg, runner)

	coord := p.Layout().ReplicateCoordinates()[0]
	testsupport.WriteFile(t, mustPath(t, p, coord, layout.ArtifactRawReads, layout.RoleRead1), 64)
	testsupport.WriteFile(t, mustPath(t, p, coord, layout.ArtifactRawReads, layout.RoleRead2), 64)

	tasks := buildStage(t, p, StageTrim)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 trim task, got %d", len(tasks))
	}
	if _, err := tasks[0].Run(context.Background()); err != nil {
		t.Fatalf("trim task: %v", err)
	}

	for _, role := range layout.ReadRoles() {
		trimmed := mustPath(t, p, coord, layout.ArtifactTrimmedReads, role)
		if _, err := os.Stat(trimmed); err != nil {
			t.Fatalf("canonical trimmed read %s missing: %v", trimmed, err)
		}
	}
	inv := runner.invocations()[0]
	leftover1, leftover2 := ngmerge.OutputNames(argValue(inv.Args, "-o"))
	for _, leftover := range []string{leftover1, leftover2} {
		if _, err := os.Stat(leftover); !os.IsNotExist(err) {
			t.Fatalf("NGmerge-named output %s should have been renamed away", leftover)
		}
	}
}

func TestAlignTaskChainsThroughSortedBAM(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSamples([]string{"colon"}, []string{"1"}))
	runner := &stubRunner{}
	p := newTestPipeline(t, cfg, runner)

	coord := p.Layout().ReplicateCoordinates()[0]
	testsupport.WriteFile(t, mustPath(t, p, coord, layout.ArtifactTrimmedReads, layout.RoleRead1), 64)
	testsupport.WriteFile(t, mustPath(t, p, coord, layout.ArtifactTrimmedReads, layout.RoleRead2), 64)

	sam := mustPath(t, p, coord, layout.ArtifactSAM, layout.RoleNone)
	bam := mustPath(t, p, coord, layout.ArtifactBAM, layout.RoleNone)
	unsorted := bam + ".unsorted"

	runner.onRun = func(inv toolrun.Invocation, onLine func(string)) (toolrun.Result, error) {
		switch {
		case inv.Tool == "bowtie2":
			onLine("10000 reads; of these:")
			onLine("98.83% overall alignment rate")
			testsupport.WriteFile(t, sam, 128)
		case inv.Args[0] == "view":
			testsupport.WriteFile(t, unsorted, 96)
		case inv.Args[0] == "sort":
			testsupport.WriteFile(t, bam, 96)
		}
		return toolrun.Result{LogPath: inv.LogPath}, nil
	}

	tasks := buildStage(t, p, StageAlign)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 align task, got %d", len(tasks))
	}
	if _, err := tasks[0].Run(context.Background()); err != nil {
		t.Fatalf("align task: %v", err)
	}

	invs := runner.invocations()
	if len(invs) != 3 {
		t.Fatalf("expected bowtie2+view+sort, got %d invocations", len(invs))
	}
	if invs[0].AppendLog || !invs[1].AppendLog || !invs[2].AppendLog {
		t.Fatalf("append flags wrong: %v %v %v", invs[0].AppendLog, invs[1].AppendLog, invs[2].AppendLog)
	}
	for _, inv := range invs {
		if !strings.HasSuffix(inv.LogPath, "colon_1.align.log") {
			t.Fatalf("chained invocation must share the stage log, got %q", inv.LogPath)
		}
	}

	if _, err := os.Stat(bam); err != nil {
		t.Fatalf("sorted BAM missing: %v", err)
	}
	for _, transient := range []string{sam, unsorted} {
		if _, err := os.Stat(transient); !os.IsNotExist(err) {
			t.Fatalf("transient %s should have been removed", transient)
		}
	}
	rates := p.snapshotRates()
	if rate := rates[coord.String()]; rate != 98.83 {
		t.Fatalf("expected scraped alignment rate 98.83, got %v (rates: %v)", rate, rates)
	}
}

func TestAlignTaskKeepsSAMWhenConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSamples([]string{"colon"}, []string{"1"}))
	cfg.Alignment.KeepSAM = true
	runner := &stubRunner{}
	p := newTestPipeline(t, cfg, runner)

	coord := p.Layout().ReplicateCoordinates()[0]
	testsupport.WriteFile(t, mustPath(t, p, coord, layout.ArtifactTrimmedReads, layout.RoleRead1), 64)
	testsupport.WriteFile(t, mustPath(t, p, coord, layout.ArtifactTrimmedReads, layout.RoleRead2), 64)

	sam := mustPath(t, p, coord, layout.ArtifactSAM, layout.RoleNone)
	bam := mustPath(t, p, coord, layout.ArtifactBAM, layout.RoleNone)
	runner.onRun = func(inv toolrun.Invocation, _ func(string)) (toolrun.Result, error) {
		switch {
		case inv.Tool == "bowtie2":
			testsupport.WriteFile(t, sam, 128)
		case inv.Args[0] == "view":
			testsupport.WriteFile(t, bam+".unsorted", 96)
		case inv.Args[0] == "sort":
			testsupport.WriteFile(t, bam, 96)
		}
		return toolrun.Result{LogPath: inv.LogPath}, nil
	}

	tasks := buildStage(t, p, StageAlign)
	if _, err := tasks[0].Run(context.Background()); err != nil {
		t.Fatalf("align task: %v", err)
	}
	if _, err := os.Stat(sam); err != nil {
		t.Fatalf("keep_sam is set, SAM should survive: %v", err)
	}
}

func TestMergeTasksBuildPerGroupShape(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSamples([]string{"colon", "crypt"}, []string{"1", "2"}))
	runner := &stubRunner{}
	p := newTestPipeline(t, cfg, runner)

	tasks := buildStage(t, p, StageMerge)
	if len(tasks) != 6 {
		t.Fatalf("expected 2 groups x (2 index + 1 merge) = 6 tasks, got %d", len(tasks))
	}
	merged := 0
	for _, task := range tasks {
		if task.Coord.IsMerged() {
			merged++
		}
		if task.Tool != "samtools" {
			t.Fatalf("merge stage task uses %q, want samtools", task.Tool)
		}
	}
	if merged != 2 {
		t.Fatalf("expected one aggregate task per group, got %d", merged)
	}
}

func TestMergeAggregateChainsMergeAndIndex(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSamples([]string{"colon"}, []string{"1", "2"}))
	runner := &stubRunner{}
	p := newTestPipeline(t, cfg, runner)

	for _, coord := range p.Layout().ReplicateCoordinates() {
		testsupport.WriteFile(t, mustPath(t, p, coord, layout.ArtifactBAM, layout.RoleNone), 96)
	}

	tasks := buildStage(t, p, StageMerge)
	var aggregate *Task
	for i := range tasks {
		if tasks[i].Coord.IsMerged() {
			aggregate = &tasks[i]
		}
	}
	if aggregate == nil {
		t.Fatal("no aggregate task built")
	}
	if _, err := aggregate.Run(context.Background()); err != nil {
		t.Fatalf("aggregate task: %v", err)
	}

	invs := runner.invocations()
	if len(invs) != 2 {
		t.Fatalf("expected merge+index, got %d invocations", len(invs))
	}
	if invs[0].Args[0] != "merge" || invs[1].Args[0] != "index" {
		t.Fatalf("unexpected subcommands %q, %q", invs[0].Args[0], invs[1].Args[0])
	}
	if invs[0].AppendLog || !invs[1].AppendLog {
		t.Fatal("index must append to the merge log")
	}
	for _, inv := range invs {
		if !strings.HasSuffix(inv.LogPath, "colon_merged.merge.log") {
			t.Fatalf("unexpected aggregate log %q", inv.LogPath)
		}
	}
}

func TestCenterTasksDeriveWindowsForBothSpans(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSamples([]string{"colon"}, []string{"1"}))
	runner := &stubRunner{}
	p := newTestPipeline(t, cfg, runner)

	for _, coord := range p.Layout().AllCoordinates() {
		summits := mustPath(t, p, coord, layout.ArtifactSummits, layout.RoleNone)
		testsupport.WriteSummits(t, summits,
			testsupport.SummitRow{Chrom: "chr1", Pos: 1000, Name: "peak_1"},
			testsupport.SummitRow{Chrom: "chr2", Pos: 50, Name: "peak_2"},
		)
	}

	tasks := buildStage(t, p, StageCenter)
	if len(tasks) != 4 {
		t.Fatalf("expected 2 coordinates x 2 spans = 4 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.Tool != "" {
			t.Fatalf("centering runs no external tool, got %q", task.Tool)
		}
		if _, err := task.Run(context.Background()); err != nil {
			t.Fatalf("center task %s/%s: %v", task.Coord, task.Role, err)
		}
	}

	rep := layout.Coordinate{Group: "colon", Replicate: "1"}
	narrow := mustPath(t, p, rep, layout.ArtifactCenteredBED, layout.RoleSpan1k)
	data, err := os.ReadFile(narrow)
	if err != nil {
		t.Fatalf("read centered bed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(lines))
	}
	if lines[0] != "chr1\t500\t1500\tpeak_1\t1.00000" {
		t.Fatalf("unexpected first window %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "chr2\t0\t550") {
		t.Fatalf("near-origin summit should clamp at zero, got %q", lines[1])
	}
}

func TestPlotTasksChainSpansInOneTask(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSamples([]string{"colon"}, []string{"1"}))
	runner := &stubRunner{}
	runner.onRun = func(inv toolrun.Invocation, _ func(string)) (toolrun.Result, error) {
		label := argValue(inv.Args, "-o")
		testsupport.WriteFile(t, filepath.Join(inv.Dir, label+".png"), 48)
		return toolrun.Result{LogPath: inv.LogPath}, nil
	}
	p := newTestPipeline(t, cfg, runner)

	rep := layout.Coordinate{Group: "colon", Replicate: "1"}
	testsupport.WriteFile(t, mustPath(t, p, rep, layout.ArtifactCoverage, layout.RoleNone), 96)
	for _, role := range layout.SpanRoles() {
		testsupport.WriteFile(t, mustPath(t, p, rep, layout.ArtifactCenteredBED, role), 48)
	}

	tasks := buildStage(t, p, StagePlot)
	if len(tasks) != 2 {
		t.Fatalf("expected one plot task per coordinate, got %d", len(tasks))
	}
	var repTask *Task
	for i := range tasks {
		if !tasks[i].Coord.IsMerged() {
			repTask = &tasks[i]
		}
	}
	if _, err := repTask.Run(context.Background()); err != nil {
		t.Fatalf("plot task: %v", err)
	}

	invs := runner.invocations()
	if len(invs) != 2 {
		t.Fatalf("expected one siteproBW run per span, got %d", len(invs))
	}
	if invs[0].AppendLog || !invs[1].AppendLog {
		t.Fatal("second span must append to the shared plot log")
	}
	if argValue(invs[0].Args, "--span") != "500" || argValue(invs[1].Args, "--span") != "2000" {
		t.Fatalf("span flanks wrong: %v / %v", invs[0].Args, invs[1].Args)
	}
	for _, role := range layout.SpanRoles() {
		plot := mustPath(t, p, rep, layout.ArtifactProfilePlot, role)
		if _, err := os.Stat(plot); err != nil {
			t.Fatalf("canonical plot for span %s missing: %v", role, err)
		}
	}
}

func TestCallPeaksTasksRenameAndPrune(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSamples([]string{"colon"}, []string{"1"}))
	runner := &stubRunner{}
	runner.onRun = func(inv toolrun.Invocation, _ func(string)) (toolrun.Result, error) {
		name := argValue(inv.Args, "-n")
		dir := argValue(inv.Args, "--outdir")
		testsupport.WriteText(t, filepath.Join(dir, name+"_peaks.narrowPeak"), "chr1\t500\t1500\tpeak_1\n")
		testsupport.WriteText(t, filepath.Join(dir, name+"_summits.bed"), "chr1\t1000\t1001\tpeak_1\t1.00000\n")
		testsupport.WriteText(t, filepath.Join(dir, name+"_peaks.xls"), "# MACS2 table\n")
		return toolrun.Result{LogPath: inv.LogPath}, nil
	}
	p := newTestPipeline(t, cfg, runner)

	rep := layout.Coordinate{Group: "colon", Replicate: "1"}
	testsupport.WriteFile(t, mustPath(t, p, rep, layout.ArtifactBAM, layout.RoleNone), 96)

	tasks := buildStage(t, p, StageCallPeaks)
	var repTask *Task
	for i := range tasks {
		if !tasks[i].Coord.IsMerged() {
			repTask = &tasks[i]
		}
	}
	if _, err := repTask.Run(context.Background()); err != nil {
		t.Fatalf("callpeaks task: %v", err)
	}

	peaks := mustPath(t, p, rep, layout.ArtifactPeaks, layout.RoleNone)
	summits := mustPath(t, p, rep, layout.ArtifactSummits, layout.RoleNone)
	for _, canonical := range []string{peaks, summits} {
		if _, err := os.Stat(canonical); err != nil {
			t.Fatalf("canonical %s missing: %v", canonical, err)
		}
	}
	dir, err := p.Layout().Dir(rep)
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "colon_1_peaks.xls")); !os.IsNotExist(err) {
		t.Fatal("MACS2 xls by-product should have been removed")
	}
}

func TestAlignTasksRejectUnknownGenome(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSamples([]string{"colon"}, []string{"1"}))
	cfg.Alignment.Genome = "dm6"
	runner := &stubRunner{}
	p := newTestPipeline(t, cfg, runner)

	st, err := StageByName(StageAlign)
	if err != nil {
		t.Fatalf("StageByName: %v", err)
	}
	if _, err := st.build(p); err == nil {
		t.Fatal("expected configuration error for unconfigured genome")
	} else if kind := services.Classify(err); kind != services.KindConfiguration {
		t.Fatalf("expected configuration kind, got %s (%v)", kind, err)
	}
}
