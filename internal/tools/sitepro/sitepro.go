// Package sitepro builds siteproBW invocations for signal profile plots
// around centered regions.
//
// siteproBW writes its plot into the current working directory with a name
// derived from the -o label, so the plot stage runs it with an explicit
// per-task working directory and uses FindOutput to locate the artifact for
// the canonical rename.
package sitepro

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dennisaldea/chipseqpipe/internal/services"
	"github.com/dennisaldea/chipseqpipe/internal/toolrun"
)

// Tool is the label used in logs and the run ledger.
const Tool = "sitepro"

// Profile builds a profile plot of a coverage track over the sites in bed.
// flank is the distance profiled on each side of the site midpoint.
func Profile(binary, bigwig, bed, label string, flank int) toolrun.Invocation {
	args := []string{
		"-w", bigwig,
		"-b", bed,
	}
	if flank > 0 {
		args = append(args, "--span", strconv.Itoa(flank))
	}
	args = append(args, "-o", label)
	return toolrun.Invocation{Tool: Tool, Binary: binary, Args: args}
}

var plotExtensions = []string{".png", ".pdf"}

// FindOutput locates the plot siteproBW produced for a label inside dir,
// preferring the newest candidate when the tool leaves more than one.
func FindOutput(dir, label string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("inspect plot outputs: %w", err)
	}
	var best string
	var bestMod int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, label) {
			continue
		}
		if !hasPlotExtension(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); best == "" || mod > bestMod {
			best = filepath.Join(dir, name)
			bestMod = mod
		}
	}
	if best == "" {
		return "", services.Wrap(services.ErrNotFound, "", Tool, "no plot produced for "+label+" in "+dir, nil)
	}
	return best, nil
}

func hasPlotExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range plotExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
