package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/dennisaldea/chipseqpipe/internal/pipeline"
)

func renderRunSummary(out io.Writer, summary *pipeline.Summary) {
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Run "+summary.RunID, colorize) {
		fmt.Fprintln(out, line)
	}

	fmt.Fprintln(out, renderTable(
		[]string{"Stage", "Completed", "Failed", "Canceled", "Task Time"},
		buildStageRows(summary.Stages),
		1, 2, 3, 4,
	))

	if len(summary.AlignmentRates) > 0 {
		for _, line := range renderSectionHeader("Alignment rates", colorize) {
			fmt.Fprintln(out, line)
		}
		for _, sample := range sortedRateKeys(summary.AlignmentRates) {
			detail := fmt.Sprintf("%.2f%% overall", summary.AlignmentRates[sample])
			fmt.Fprintln(out, renderStatusLine(sample, statusInfo, detail, colorize))
		}
	}

	if len(summary.Failures) > 0 {
		for _, line := range renderSectionHeader("Failures", colorize) {
			fmt.Fprintln(out, line)
		}
		for _, failure := range summary.Failures {
			label := failure.Task.Coord.String() + " " + failure.Task.Stage
			fmt.Fprintln(out, renderStatusLine(label, statusError, failure.Err.Error(), colorize))
		}
	}

	kind := statusOK
	switch {
	case summary.TotalFailed() > 0:
		kind = statusError
	case summary.TotalCanceled() > 0:
		kind = statusWarn
	}
	detail := fmt.Sprintf("%d completed, %d failed, %d canceled in %s",
		summary.TotalCompleted(), summary.TotalFailed(), summary.TotalCanceled(),
		summary.Duration.Round(time.Millisecond))
	fmt.Fprintln(out, renderStatusLine("Result", kind, detail, colorize))
}

func buildStageRows(stages []pipeline.StageSummary) [][]string {
	rows := make([][]string, 0, len(stages))
	for _, st := range stages {
		rows = append(rows, []string{
			pipeline.Label(st.Stage),
			strconv.Itoa(st.Completed),
			strconv.Itoa(st.Failed),
			strconv.Itoa(st.Canceled),
			st.Duration.Round(time.Millisecond).String(),
		})
	}
	return rows
}

func sortedRateKeys(rates map[string]float64) []string {
	keys := make([]string, 0, len(rates))
	for key := range rates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
