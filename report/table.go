package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteTable renders the statement as an aligned console table.
func WriteTable(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(Header, "\t"))
	rule := make([]string, len(Header))
	for i, h := range Header {
		rule[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(rule, "\t"))

	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r.Record(), "\t"))
	}
	return tw.Flush()
}
