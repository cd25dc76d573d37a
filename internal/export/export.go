// Package export writes query results to files a sales team can open:
// CSV for tooling, XLSX for hand-off.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tealeg/xlsx/v2"

	"github.com/forgelabs/leadgrid/internal/lead"
)

// header is the fixed column order both formats share.
var header = []string{
	"ID", "Company Name", "Contact Person", "Email", "Phone", "Website",
	"Industry", "Location", "Company Type", "Source", "Date",
}

func row(l lead.Lead) []string {
	return []string{
		strconv.FormatInt(l.ID, 10),
		l.CompanyName,
		l.ContactPerson,
		l.Email,
		l.Phone,
		l.Website,
		l.Industry,
		l.Location,
		l.CompanyType,
		string(l.Source),
		l.ScrapedDate.Format("2006-01-02"),
	}
}

// Exporter writes leads from the store into an output directory.
type Exporter struct {
	store lead.Store
	dir   string
}

// New creates the output directory if needed.
func New(store lead.Store, dir string) (*Exporter, error) {
	if dir == "" {
		return nil, fmt.Errorf("export directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &Exporter{store: store, dir: dir}, nil
}

// CSV queries leads with the filter and writes them to name.csv, returning
// the file path and row count.
func (e *Exporter) CSV(ctx context.Context, name string, f lead.Filter) (string, int, error) {
	leads, err := e.store.Query(ctx, f)
	if err != nil {
		return "", 0, fmt.Errorf("query leads for export: %w", err)
	}

	path := filepath.Join(e.dir, name+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return "", 0, fmt.Errorf("write csv header: %w", err)
	}
	for _, l := range leads {
		if err := w.Write(row(l)); err != nil {
			return "", 0, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", 0, fmt.Errorf("flush csv: %w", err)
	}
	return path, len(leads), nil
}

// XLSX queries leads with the filter and writes them to name.xlsx, returning
// the file path and row count.
func (e *Exporter) XLSX(ctx context.Context, name string, f lead.Filter) (string, int, error) {
	leads, err := e.store.Query(ctx, f)
	if err != nil {
		return "", 0, fmt.Errorf("query leads for export: %w", err)
	}

	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Leads")
	if err != nil {
		return "", 0, fmt.Errorf("add xlsx sheet: %w", err)
	}

	hr := sheet.AddRow()
	for _, h := range header {
		hr.AddCell().Value = h
	}
	for _, l := range leads {
		r := sheet.AddRow()
		for _, v := range row(l) {
			r.AddCell().Value = v
		}
	}

	path := filepath.Join(e.dir, name+".xlsx")
	if err := wb.Save(path); err != nil {
		return "", 0, fmt.Errorf("save %s: %w", path, err)
	}
	return path, len(leads), nil
}
