// Package export renders classified tenants as downloadable reports.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/warp/rent-status/rent"
	"github.com/xuri/excelize/v2"
)

const (
	TenantsSheet    = "Tenants"
	StatisticsSheet = "Statistics"

	// ContentType is the MIME type of the workbook WriteWorkbook produces.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var tenantHeadings = []interface{}{
	"ID", "Name", "Status", "Pending Months", "Partial Due", "Pending Due",
	"Rent Due", "Advance Paid", "Refund Paid", "Active",
}

// WriteWorkbook writes one row per evaluated tenant plus a statistics sheet.
func WriteWorkbook(w io.Writer, evs []rent.Evaluation, stats rent.Statistics) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"
	if err := f.SetSheetName("Sheet1", TenantsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(StatisticsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	if err := writeRow(f, TenantsSheet, 1, tenantHeadings); err != nil {
		return err
	}
	for i, ev := range evs {
		r := ev.Result
		row := []interface{}{
			string(ev.Snapshot.ID),
			ev.Snapshot.Name,
			string(r.Label()),
			r.PendingMonths,
			amount(r.PartialDueAmount),
			amount(r.PendingDueAmount),
			amount(r.RentDueAmount),
			yesNo(r.IsAdvancePaid),
			yesNo(r.IsRefundPaid),
			yesNo(ev.Snapshot.Active),
		}
		if err := writeRow(f, TenantsSheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(TenantsSheet, "B", "B", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	statRows := [][]interface{}{
		{"Metric", "Value"},
		{"Total", stats.Total},
		{"Active", stats.Active},
		{"With Pending Rent", stats.WithPendingRent},
		{"With Partial Rent", stats.WithPartialRent},
		{"With Paid Rent", stats.WithPaidRent},
		{"Without Advance", stats.WithoutAdvance},
		{"Total Due Amount", amount(stats.TotalDueAmount)},
	}
	for i, row := range statRows {
		if err := writeRow(f, StatisticsSheet, i+1, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNo int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, rowNo, err)
	}
	return nil
}

// amount keeps cells numeric so spreadsheets can sum them.
func amount(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
