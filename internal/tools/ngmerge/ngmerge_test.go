package ngmerge

import (
	"strings"
	"testing"
)

func TestCommand(t *testing.T) {
	inv := Command("NGmerge", "r1.fastq.gz", "r2.fastq.gz", "/data/colon/1/colon_1_trim", 4)
	if inv.Tool != Tool {
		t.Fatalf("tool = %q", inv.Tool)
	}
	got := strings.Join(inv.Args, " ")
	want := "-a -1 r1.fastq.gz -2 r2.fastq.gz -o /data/colon/1/colon_1_trim -v -n 4"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestOutputNames(t *testing.T) {
	read1, read2 := OutputNames("/data/colon/1/colon_1_trim")
	if read1 != "/data/colon/1/colon_1_trim_1.fastq.gz" {
		t.Fatalf("read1 = %q", read1)
	}
	if read2 != "/data/colon/1/colon_1_trim_2.fastq.gz" {
		t.Fatalf("read2 = %q", read2)
	}
}
