// Package bowtie2 builds Bowtie2 invocations for paired-end alignment and
// scrapes the overall alignment rate from the tool's diagnostics.
package bowtie2

import (
	"strconv"
	"strings"
	"sync"

	"github.com/dennisaldea/chipseqpipe/internal/toolrun"
)

// Tool is the label used in logs and the run ledger.
const Tool = "bowtie2"

// Command builds a paired-end alignment against the index prefix, emitting
// SAM to samOut. The preset selects one of bowtie2's effort presets
// (fast, sensitive, very-sensitive); pair constraints suppress unaligned,
// discordant, and mixed records so the SAM holds concordant pairs only.
func Command(binary, indexPrefix, preset string, threads int, read1, read2, samOut string) toolrun.Invocation {
	args := []string{
		"-t",
		"--no-unal",
		"--no-discordant",
		"--no-mixed",
		"--ignore-quals",
		"-q",
	}
	if preset = strings.TrimSpace(preset); preset != "" {
		args = append(args, "--"+preset)
	}
	if threads > 0 {
		args = append(args, "-p", strconv.Itoa(threads))
	}
	args = append(args,
		"-x", indexPrefix,
		"-1", read1,
		"-2", read2,
		"-S", samOut,
	)
	return toolrun.Invocation{Tool: Tool, Binary: binary, Args: args}
}

// RateParser extracts the "overall alignment rate" line bowtie2 prints on
// stderr. Safe for use as a toolrun line callback, which may fire from both
// output scanners.
type RateParser struct {
	mu    sync.Mutex
	rate  float64
	found bool
}

// Line feeds one output line to the parser.
func (p *RateParser) Line(line string) {
	trimmed := strings.TrimSpace(line)
	const marker = "% overall alignment rate"
	if !strings.HasSuffix(trimmed, marker) {
		return
	}
	value := strings.TrimSuffix(trimmed, marker)
	rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rate = rate
	p.found = true
}

// Rate returns the parsed alignment rate in percent, if one was seen.
func (p *RateParser) Rate() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate, p.found
}
