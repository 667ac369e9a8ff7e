package deeptools

import (
	"strings"
	"testing"
)

func TestBamCoverage(t *testing.T) {
	inv := BamCoverage("bamCoverage", "colon_1.align.bam", "colon_1.cov.bw", 10, "RPKM", 4)
	got := strings.Join(inv.Args, " ")
	want := "-b colon_1.align.bam -o colon_1.cov.bw --outFileFormat bigwig --binSize 10 --normalizeUsing RPKM -p 4"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestBamCoverageOmitsOptionalFlags(t *testing.T) {
	inv := BamCoverage("bamCoverage", "in.bam", "out.bw", 0, "", 0)
	got := strings.Join(inv.Args, " ")
	for _, flag := range []string{"--binSize", "--normalizeUsing", "-p"} {
		if strings.Contains(got, flag) {
			t.Fatalf("args %q should omit %s", got, flag)
		}
	}
}
