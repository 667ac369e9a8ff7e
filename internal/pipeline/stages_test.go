package pipeline

import (
	"strings"
	"testing"

	"github.com/dennisaldea/chipseqpipe/internal/services"
)

func TestStageNamesOrder(t *testing.T) {
	want := []string{
		"qc-raw", "trim", "qc-trimmed", "align", "merge",
		"coverage", "callpeaks", "center", "plot",
	}
	got := StageNames()
	if len(got) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stage %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStageByNameUnknown(t *testing.T) {
	_, err := StageByName("polish")
	if err == nil {
		t.Fatal("expected error for unknown stage")
	}
	if kind := services.Classify(err); kind != services.KindValidation {
		t.Fatalf("expected validation kind, got %s", kind)
	}
	if !strings.Contains(err.Error(), "unknown stage") {
		t.Fatalf("error should name the problem, got %q", err)
	}
}

func TestStageModes(t *testing.T) {
	cases := map[string]Mode{
		StageQCRaw:    ModeParallel,
		StageTrim:     ModeParallel,
		StageAlign:    ModeGroupSequential,
		StageMerge:    ModeGroupAggregate,
		StageCoverage: ModeParallel,
		StagePlot:     ModeParallel,
	}
	for name, mode := range cases {
		st, err := StageByName(name)
		if err != nil {
			t.Fatalf("StageByName(%s): %v", name, err)
		}
		if st.Mode != mode {
			t.Errorf("stage %s mode = %v, want %v", name, st.Mode, mode)
		}
	}
}

func TestLabel(t *testing.T) {
	cases := map[string]string{
		StageQCRaw:     "Qc Raw",
		StageQCTrimmed: "Qc Trimmed",
		StageCallPeaks: "Callpeaks",
		StagePlot:      "Plot",
	}
	for stage, want := range cases {
		if got := Label(stage); got != want {
			t.Errorf("Label(%s) = %q, want %q", stage, got, want)
		}
	}
}
