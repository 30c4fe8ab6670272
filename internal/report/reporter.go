// Package report prints the human-readable comp summary.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wonny/compsync/internal/contracts"
)

// Reporter writes a fixed-order summary of a NormalizedRecord
type Reporter struct {
	out     io.Writer
	printer *message.Printer
}

// NewReporter creates a reporter writing to out (stdout when nil)
func NewReporter(out io.Writer) *Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &Reporter{
		out:     out,
		printer: message.NewPrinter(language.English),
	}
}

// Report prints the summary. The "Best items" line only appears when the
// main carry has an entry in item_builds.
func (r *Reporter) Report(record *contracts.NormalizedRecord) {
	perf := record.Performance

	fmt.Fprintln(r.out, "COMP SUMMARY")
	fmt.Fprintf(r.out, "Comp: %s\n", record.CompName)
	fmt.Fprintf(r.out, "Units: %s\n", strings.Join(record.Units, ", "))
	fmt.Fprintf(r.out, "Avg Placement: %.2f\n", perf.AvgPlacement)
	fmt.Fprintf(r.out, "Sample Size: %s games\n", r.printer.Sprintf("%d", perf.SampleSize))
	fmt.Fprintf(r.out, "Estimated Top 4 Rate: %.1f%%\n", perf.EstimatedTop4Rate)
	fmt.Fprintf(r.out, "\nMain carry: %s\n", record.MainCarry)

	if build, ok := record.CarryBuild(); ok {
		fmt.Fprintf(r.out, "Best items: %s\n", strings.Join(build.Items, ", "))
	}
}
