package export

import (
	"context"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/forgelabs/leadgrid/internal/lead"
	"github.com/forgelabs/leadgrid/internal/store/memory"
)

func seed(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	_, _, err := s.Upsert(context.Background(), lead.Lead{
		CompanyName:   "Sharma Forgings Pvt Ltd",
		ContactPerson: "Rajesh Sharma",
		Email:         "sales@sharmaforgings.example.com",
		Phone:         "9876543210",
		Website:       "https://sharmaforgings.example.com",
		Industry:      "Forging",
		CompanyType:   "Forging Company",
		Location:      "Pune",
		Source:        lead.SourceIndiaMART,
		ScrapedDate:   time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, _, err = s.Upsert(context.Background(), lead.Lead{
		CompanyName: "Deccan Castings",
		Location:    "Kolhapur",
		Source:      lead.SourceJustDial,
		ScrapedDate: time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return s
}

func TestCSVExport(t *testing.T) {
	t.Parallel()

	e, err := New(seed(t), t.TempDir())
	require.NoError(t, err)

	path, n, err := e.CSV(context.Background(), "leads", lead.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"ID", "Company Name", "Contact Person", "Email", "Phone", "Website",
		"Industry", "Location", "Company Type", "Source", "Date",
	}, rows[0])
	assert.Equal(t, "Sharma Forgings Pvt Ltd", rows[1][1])
	assert.Equal(t, "2026-03-14", rows[1][10])
	assert.Equal(t, "JustDial", rows[2][9])
}

func TestCSVExportWithFilter(t *testing.T) {
	t.Parallel()

	e, err := New(seed(t), t.TempDir())
	require.NoError(t, err)

	_, n, err := e.CSV(context.Background(), "pune", lead.Filter{Location: "Pune"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestXLSXExport(t *testing.T) {
	t.Parallel()

	e, err := New(seed(t), t.TempDir())
	require.NoError(t, err)

	path, n, err := e.XLSX(context.Background(), "leads", lead.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	wb, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)

	sheet := wb.Sheets[0]
	assert.Equal(t, "Leads", sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Company Name", sheet.Rows[0].Cells[1].Value)
	assert.Equal(t, "Deccan Castings", sheet.Rows[2].Cells[1].Value)
}
