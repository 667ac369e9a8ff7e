// Package macs2 builds MACS2 callpeak invocations.
//
// MACS2 derives its output names from the -n experiment name; OutputNames
// mirrors that derivation so the callpeaks stage can rename the narrowPeak
// and summits files onto the canonical suffix-chain paths.
package macs2

import (
	"path/filepath"
	"strconv"

	"github.com/dennisaldea/chipseqpipe/internal/toolrun"
)

// Tool is the label used in logs and the run ledger.
const Tool = "macs2"

// CallPeak builds a paired-end peak call over one BAM. gsize is the MACS2
// genome-size token configured per genome (mm, hs, or a number).
func CallPeak(binary, treatment, name, outDir, gsize string, qvalue float64) toolrun.Invocation {
	args := []string{
		"callpeak",
		"-t", treatment,
		"-f", "BAMPE",
		"-g", gsize,
		"-n", name,
		"--outdir", outDir,
		"-q", strconv.FormatFloat(qvalue, 'g', -1, 64),
	}
	return toolrun.Invocation{Tool: Tool, Binary: binary, Args: args}
}

// OutputNames returns the paths MACS2 writes for an experiment name:
// <name>_peaks.narrowPeak and <name>_summits.bed under outDir.
func OutputNames(outDir, name string) (narrowPeak, summits string) {
	return filepath.Join(outDir, name+"_peaks.narrowPeak"),
		filepath.Join(outDir, name+"_summits.bed")
}

// Extras returns MACS2 by-products the pipeline discards after a successful
// rename (the Excel-format peak table and the model script).
func Extras(outDir, name string) []string {
	return []string{
		filepath.Join(outDir, name+"_peaks.xls"),
		filepath.Join(outDir, name+"_model.r"),
	}
}
