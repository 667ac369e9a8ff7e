// Package samtools builds samtools invocations for the view, sort, index,
// and merge subcommands the pipeline uses.
package samtools

import (
	"strconv"

	"github.com/dennisaldea/chipseqpipe/internal/toolrun"
)

// Tool is the label used in logs and the run ledger.
const Tool = "samtools"

// View converts SAM text into binary BAM at bamOut.
func View(binary string, threads int, samIn, bamOut string) toolrun.Invocation {
	args := []string{"view", "-b", "-S"}
	args = appendThreads(args, threads)
	args = append(args, "-o", bamOut, samIn)
	return toolrun.Invocation{Tool: Tool, Binary: binary, Args: args}
}

// Sort coordinate-sorts a BAM into bamOut.
func Sort(binary string, threads int, bamIn, bamOut string) toolrun.Invocation {
	args := []string{"sort"}
	args = appendThreads(args, threads)
	args = append(args, "-o", bamOut, bamIn)
	return toolrun.Invocation{Tool: Tool, Binary: binary, Args: args}
}

// Index writes the .bai companion index for a sorted BAM.
func Index(binary string, threads int, bam string) toolrun.Invocation {
	args := []string{"index"}
	args = appendThreads(args, threads)
	args = append(args, bam)
	return toolrun.Invocation{Tool: Tool, Binary: binary, Args: args}
}

// Merge combines the replicate BAMs of one group into mergedOut, overwriting
// any previous merge.
func Merge(binary string, threads int, mergedOut string, inputs ...string) toolrun.Invocation {
	args := []string{"merge", "-f"}
	args = appendThreads(args, threads)
	args = append(args, mergedOut)
	args = append(args, inputs...)
	return toolrun.Invocation{Tool: Tool, Binary: binary, Args: args}
}

func appendThreads(args []string, threads int) []string {
	if threads > 0 {
		args = append(args, "-@", strconv.Itoa(threads))
	}
	return args
}
