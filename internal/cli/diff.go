package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	addedLine   = color.New(color.FgGreen).SprintFunc()
	removedLine = color.New(color.FgRed).SprintFunc()
	hunkLine    = color.New(color.FgCyan).SprintFunc()
)

// writeLineDiff prints the lines that differ between before and after,
// "-" for removed and "+" for added, with the line number in before.
func writeLineDiff(w io.Writer, before, after string) (changed bool) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	line := 1
	lastHunk := -1
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		n := strings.Count(d.Text, "\n")
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			line += n
			continue
		case diffmatchpatch.DiffDelete:
			if lastHunk != line {
				fmt.Fprintln(w, hunkLine(fmt.Sprintf("@@ line %d @@", line)))
				lastHunk = line
			}
			for _, l := range strings.Split(text, "\n") {
				fmt.Fprintln(w, removedLine("- "+l))
			}
			line += n
			lastHunk = line
		case diffmatchpatch.DiffInsert:
			if lastHunk != line {
				fmt.Fprintln(w, hunkLine(fmt.Sprintf("@@ line %d @@", line)))
				lastHunk = line
			}
			for _, l := range strings.Split(text, "\n") {
				fmt.Fprintln(w, addedLine("+ "+l))
			}
		}
		changed = true
	}
	return changed
}
