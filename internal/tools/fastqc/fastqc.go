// Package fastqc builds FastQC invocations for read quality reports.
//
// FastQC names its report files itself (<input>_fastqc.html/.zip); the
// pipeline points it at the coordinate directory and leaves the reports
// where downstream humans expect them. Nothing consumes them programmatically.
package fastqc

import (
	"strconv"

	"github.com/dennisaldea/chipseqpipe/internal/toolrun"
)

// Tool is the label used in logs and the run ledger.
const Tool = "fastqc"

// Command builds a FastQC run over one or more read files, writing reports
// into outDir.
func Command(binary string, outDir string, threads int, reads ...string) toolrun.Invocation {
	args := append([]string(nil), reads...)
	args = append(args, "-o", outDir)
	if threads > 0 {
		args = append(args, "-t", strconv.Itoa(threads))
	}
	return toolrun.Invocation{Tool: Tool, Binary: binary, Args: args}
}
