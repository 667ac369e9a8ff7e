// Package deeptools builds bamCoverage invocations for bigWig coverage
// tracks.
package deeptools

import (
	"strconv"

	"github.com/dennisaldea/chipseqpipe/internal/toolrun"
)

// Tool is the label used in logs and the run ledger.
const Tool = "bamcoverage"

// BamCoverage builds a bigWig coverage track from an indexed BAM.
func BamCoverage(binary, bam, bigwig string, binSize int, normalize string, processors int) toolrun.Invocation {
	args := []string{
		"-b", bam,
		"-o", bigwig,
		"--outFileFormat", "bigwig",
	}
	if binSize > 0 {
		args = append(args, "--binSize", strconv.Itoa(binSize))
	}
	if normalize != "" {
		args = append(args, "--normalizeUsing", normalize)
	}
	if processors > 0 {
		args = append(args, "-p", strconv.Itoa(processors))
	}
	return toolrun.Invocation{Tool: Tool, Binary: binary, Args: args}
}
