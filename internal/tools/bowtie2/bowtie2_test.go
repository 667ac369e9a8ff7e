package bowtie2

import (
	"strings"
	"testing"
)

func TestCommand(t *testing.T) {
	inv := Command("bowtie2", "/genomes/mm10/mm10", "very-sensitive", 8,
		"colon_1_R1.raw.trim.fastq.gz", "colon_1_R2.raw.trim.fastq.gz", "colon_1.align.sam")
	got := strings.Join(inv.Args, " ")
	want := "-t --no-unal --no-discordant --no-mixed --ignore-quals -q --very-sensitive -p 8 " +
		"-x /genomes/mm10/mm10 -1 colon_1_R1.raw.trim.fastq.gz -2 colon_1_R2.raw.trim.fastq.gz -S colon_1.align.sam"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestCommandWithoutPreset(t *testing.T) {
	inv := Command("bowtie2", "idx", "", 0, "r1", "r2", "out.sam")
	joined := strings.Join(inv.Args, " ")
	if strings.Contains(joined, "--very-sensitive") || strings.Contains(joined, "-p ") {
		t.Fatalf("unexpected optional flags: %q", joined)
	}
}

func TestRateParser(t *testing.T) {
	var parser RateParser
	for _, line := range []string{
		"24000000 reads; of these:",
		"  24000000 (100.00%) were paired; of these:",
		"97.53% overall alignment rate",
		"Time searching: 00:12:41",
	} {
		parser.Line(line)
	}
	rate, ok := parser.Rate()
	if !ok {
		t.Fatal("expected a parsed rate")
	}
	if rate != 97.53 {
		t.Fatalf("rate = %v", rate)
	}
}

func TestRateParserIgnoresGarbage(t *testing.T) {
	var parser RateParser
	parser.Line("not a rate line")
	parser.Line("almost% overall alignment rate")
	if _, ok := parser.Rate(); ok {
		t.Fatal("expected no rate")
	}
}
