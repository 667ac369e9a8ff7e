// Package centering derives fixed-width BED windows centered on MACS2 peak
// summits.
//
// This is the one pipeline stage computed in-process rather than delegated
// to an external tool: the transformation is a line-by-line arithmetic
// rewrite of the summits BED, one output file per window span.
package centering

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dennisaldea/chipseqpipe/internal/services"
)

// DeriveWindows reads a summits BED and writes width-sized windows centered
// on each summit midpoint to outPath, clamping starts at zero. Columns past
// the interval are carried through untouched. Returns the number of sites
// written.
func DeriveWindows(summitsPath, outPath string, width int) (int, error) {
	if width <= 0 || width%2 != 0 {
		return 0, fmt.Errorf("%w: window width must be a positive even number, got %d", services.ErrValidation, width)
	}
	half := int64(width / 2)

	in, err := os.Open(summitsPath)
	if err != nil {
		return 0, fmt.Errorf("open summits: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create centered bed: %w", err)
	}
	writer := bufio.NewWriter(out)

	count := 0
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "track") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			out.Close()
			return 0, fmt.Errorf("%w: %s:%d: expected at least 3 BED columns, got %d", services.ErrValidation, summitsPath, lineNo, len(fields))
		}
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			out.Close()
			return 0, fmt.Errorf("%w: %s:%d: bad start %q", services.ErrValidation, summitsPath, lineNo, fields[1])
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil || end < start {
			out.Close()
			return 0, fmt.Errorf("%w: %s:%d: bad end %q", services.ErrValidation, summitsPath, lineNo, fields[2])
		}

		center := start + (end-start)/2
		winStart := center - half
		if winStart < 0 {
			winStart = 0
		}
		winEnd := center + half

		cols := append([]string{fields[0], strconv.FormatInt(winStart, 10), strconv.FormatInt(winEnd, 10)}, fields[3:]...)
		fmt.Fprintln(writer, strings.Join(cols, "\t"))
		count++
	}
	if err := scanner.Err(); err != nil {
		out.Close()
		return 0, fmt.Errorf("read summits: %w", err)
	}
	if err := writer.Flush(); err != nil {
		out.Close()
		return 0, fmt.Errorf("write centered bed: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("close centered bed: %w", err)
	}
	return count, nil
}
