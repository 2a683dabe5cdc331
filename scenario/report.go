package scenario

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// WriteReport prints the summary block and returns the pass/fail tally.
func WriteReport(w io.Writer, results []Result) (passed, total int) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	passedLabel := color.New(color.FgGreen).Sprint("[PASSED]")
	failedLabel := color.New(color.FgRed, color.Bold).Sprint("[FAILED]")
	for _, res := range results {
		label := failedLabel
		if res.Passed {
			label = passedLabel
			passed++
		}
		fmt.Fprintf(w, "  %s: %s (%.2fs)\n", strings.ToUpper(res.Name), label, res.Elapsed.Seconds())
	}
	fmt.Fprintf(w, "\n  Total: %d/%d scenarios passed\n", passed, len(results))
	return passed, len(results)
}
