// Package ngmerge builds NGmerge invocations in adapter-removal mode.
package ngmerge

import (
	"strconv"

	"github.com/dennisaldea/chipseqpipe/internal/toolrun"
)

// Tool is the label used in logs and the run ledger.
const Tool = "ngmerge"

// Command builds an adapter-removal run over a read pair. NGmerge derives its
// own output names from outPrefix; see OutputNames.
func Command(binary, read1, read2, outPrefix string, threads int) toolrun.Invocation {
	args := []string{
		"-a",
		"-1", read1,
		"-2", read2,
		"-o", outPrefix,
		"-v",
	}
	if threads > 0 {
		args = append(args, "-n", strconv.Itoa(threads))
	}
	return toolrun.Invocation{Tool: Tool, Binary: binary, Args: args}
}

// OutputNames returns the files NGmerge writes for outPrefix in adapter mode:
// <prefix>_1.fastq.gz and <prefix>_2.fastq.gz. The trim stage renames them to
// the canonical trimmed-read paths.
func OutputNames(outPrefix string) (read1, read2 string) {
	return outPrefix + "_1.fastq.gz", outPrefix + "_2.fastq.gz"
}
