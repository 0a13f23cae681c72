package statement

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/warp/tip-engine/generic"
	"github.com/warp/tip-engine/report"
)

// WriteSummary prints the run counts, the period and the console table.
func WriteSummary(w io.Writer, st *Statement) error {
	fmt.Fprintf(w, "Received %d timecards\n", st.Timecards)
	fmt.Fprintf(w, "Received %d payments\n", st.Payments)
	fmt.Fprintf(w, "Received %d credit tips\n", st.CreditTips)
	if n := len(st.Unattributed); n > 0 {
		fmt.Fprintf(w, "Unattributed %d credit tips (%s)\n", n, generic.FormatDollars(st.UnattributedTotal()))
	}
	fmt.Fprintf(w, "From: %s TO: %s\n", st.Period.Start, st.Period.End)
	return report.WriteTable(w, st.Rows)
}

// WriteCSV writes the statement into dir under its Filename and returns the path.
func WriteCSV(dir string, st *Statement) (string, error) {
	path := filepath.Join(dir, st.Filename())
	if err := report.WriteCSVFile(path, st.Rows); err != nil {
		return "", err
	}
	return path, nil
}
