package report

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// csvRecord mirrors Header. Field order is column order.
type csvRecord struct {
	FirstName       string `csv:"First Name"`
	LastName        string `csv:"Last Name"`
	CreditTips      string `csv:"Credit Tips"`
	ShiftStart      string `csv:"Shift Start"`
	ShiftEnd        string `csv:"Shift End"`
	ShiftHours      string `csv:"Shift Hours"`
	Wage            string `csv:"Wage"`
	TimecardID      string `csv:"Timecard ID"`
	Earnings        string `csv:"Earnings"`
	EarningsWithTip string `csv:"Earnings with Tip"`
}

func toCSVRecord(r Row) csvRecord {
	c := r.Record()
	return csvRecord{
		FirstName:       c[0],
		LastName:        c[1],
		CreditTips:      c[2],
		ShiftStart:      c[3],
		ShiftEnd:        c[4],
		ShiftHours:      c[5],
		Wage:            c[6],
		TimecardID:      c[7],
		Earnings:        c[8],
		EarningsWithTip: c[9],
	}
}

// WriteCSV writes the header followed by every row.
func WriteCSV(w io.Writer, rows []Row) error {
	records := make([]*csvRecord, len(rows))
	for i, r := range rows {
		rec := toCSVRecord(r)
		records[i] = &rec
	}
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("failed to write statement csv: %w", err)
	}
	return nil
}

// WriteCSVFile creates (or truncates) path and writes the statement to it.
func WriteCSVFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
