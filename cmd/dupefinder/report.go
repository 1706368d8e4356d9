package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"

	"github.com/dustin/go-humanize"
)

func renderScanReport(w io.Writer, report *types.ScanReport) {
	if report.Message != "" {
		fmt.Fprintln(w, report.Message)
		return
	}

	if len(report.DuplicateGroups) > 0 {
		fmt.Fprintln(w, "Exact duplicates")
		rows := make([][]string, 0, len(report.DuplicateGroups))
		for _, g := range report.DuplicateGroups {
			rows = append(rows, []string{
				g.Digest.Short(),
				strconv.Itoa(g.Count()),
				relativeTo(report.Root, g.Original()),
				joinRelative(report.Root, g.Duplicates()),
			})
		}
		fmt.Fprintln(w, renderTable(
			[]string{"Hash", "Count", "Kept", "Duplicates"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
		))
	}

	if len(report.NearDuplicateClusters) > 0 {
		fmt.Fprintln(w, "Near duplicates")
		rows := make([][]string, 0, len(report.NearDuplicateClusters))
		for _, c := range report.NearDuplicateClusters {
			rows = append(rows, []string{c.ID, strconv.Itoa(c.Count()), joinRelative(report.Root, c.Paths)})
		}
		fmt.Fprintln(w, renderTable(
			[]string{"Group", "Count", "Files"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft},
		))
	}

	renderSummary(w, report.Summary, report.Diagnostics)
}

func renderSummary(w io.Writer, s types.Summary, diagnostics []types.Diagnostic) {
	rows := [][]string{
		{"Media files", humanize.Comma(int64(s.TotalFiles))},
		{"Images / videos", fmt.Sprintf("%s / %s", humanize.Comma(int64(s.Images)), humanize.Comma(int64(s.Videos)))},
		{"Duplicate groups", humanize.Comma(int64(s.DuplicateGroups))},
		{"Redundant files", humanize.Comma(int64(s.RedundantFiles))},
		{"Reclaimable", humanize.IBytes(s.ReclaimableBytes)},
		{"Near-duplicate groups", humanize.Comma(int64(s.NearDuplicateClusters))},
		{"Problems", humanize.Comma(int64(len(diagnostics)))},
	}
	fmt.Fprintln(w, renderTable([]string{"Summary", ""}, rows, []columnAlignment{alignLeft, alignRight}))
}

func renderRelocation(w io.Writer, result *types.RelocationResult) {
	verb := "Moved"
	if result.DryRun {
		verb = "Would move"
	}

	if len(result.Moves) > 0 {
		rows := make([][]string, 0, len(result.Moves))
		for _, mv := range result.Moves {
			rows = append(rows, []string{
				relativeTo(mv.RootDirectory, mv.SourcePath),
				relativeTo(result.DestinationRoot, mv.DestinationPath),
			})
		}
		fmt.Fprintln(w, renderTable([]string{"From", "To (" + result.DestinationRoot + ")"}, rows, nil))
	}

	renderDiagnostics(w, result.Errors)
	fmt.Fprintf(w, "%s %d of %d duplicate file(s) from %d group(s) to %s\n",
		verb, len(result.Moves), len(result.Moves)+len(result.Errors), result.GroupsConsidered, result.DestinationRoot)
}

func renderDiagnostics(w io.Writer, diagnostics []types.Diagnostic) {
	if len(diagnostics) == 0 {
		return
	}
	rows := make([][]string, 0, len(diagnostics))
	for _, d := range diagnostics {
		rows = append(rows, []string{string(d.Op), d.Path, d.Message()})
	}
	fmt.Fprintln(w, renderTable([]string{"Op", "Path", "Error"}, rows, nil))
}

func relativeTo(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func joinRelative(root string, paths []string) string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = relativeTo(root, p)
	}
	return strings.Join(out, "\n")
}
