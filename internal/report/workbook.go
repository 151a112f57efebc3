package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/banktocfo/banktocfo/internal/domain"
)

// Sheet names of the generated workbook.
const (
	SheetDashboard    = "Dashboard"
	SheetTransactions = "All Transactions"
	SheetMonthly      = "Monthly Analysis"
	SheetCategories   = "Category Analysis"
	SheetHowTo        = "How to Use"
)

// BuildWorkbook assembles the CFO Pack workbook: dashboard metrics, the full
// transaction listing, monthly analysis with a cash-flow chart, the category
// breakdown, and a usage sheet. Every sheet is derived losslessly from the
// inputs.
func BuildWorkbook(summary *Summary, txs []domain.CategorizedTransaction) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetDashboard); err != nil {
		return nil, fmt.Errorf("report: renaming dashboard sheet: %w", err)
	}
	for _, name := range []string{SheetTransactions, SheetMonthly, SheetCategories, SheetHowTo} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("report: creating sheet %q: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2F5496"}},
	})
	if err != nil {
		return nil, fmt.Errorf("report: creating header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr("#,##0.00")})
	if err != nil {
		return nil, fmt.Errorf("report: creating number style: %w", err)
	}

	if err := writeDashboard(f, summary, header); err != nil {
		return nil, err
	}
	if err := writeTransactions(f, txs, header, money); err != nil {
		return nil, err
	}
	if err := writeMonthly(f, summary, header, money); err != nil {
		return nil, err
	}
	if err := writeCategories(f, summary, header, money); err != nil {
		return nil, err
	}
	if err := writeHowTo(f); err != nil {
		return nil, err
	}

	return f, nil
}

// Write renders the workbook to w as xlsx bytes.
func Write(w io.Writer, summary *Summary, txs []domain.CategorizedTransaction) error {
	f, err := BuildWorkbook(summary, txs)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("report: writing workbook: %w", err)
	}
	return nil
}

func writeDashboard(f *excelize.File, s *Summary, header int) error {
	period := ""
	if s.TransactionCount > 0 {
		period = fmt.Sprintf("%s - %s", s.Start, s.End)
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total Income", s.TotalInflow.InexactFloat64()},
		{"Total Expenses", s.TotalOutflow.InexactFloat64()},
		{"Net Income", s.Net.InexactFloat64()},
		{"Statement Period", period},
		{"Months Analyzed", s.Months},
		{"Total Transactions", s.TransactionCount},
	}
	if err := writeRows(f, SheetDashboard, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetDashboard, "A1", "B1", header); err != nil {
		return err
	}
	return f.SetColWidth(SheetDashboard, "A", "B", 24)
}

func writeTransactions(f *excelize.File, txs []domain.CategorizedTransaction, header, money int) error {
	rows := make([][]interface{}, 0, len(txs)+1)
	rows = append(rows, []interface{}{"Date", "Description", "Category", "Amount", "Type", "Source"})
	for _, tx := range txs {
		rows = append(rows, []interface{}{
			tx.Date.String(),
			tx.Description,
			tx.Category,
			tx.Amount.InexactFloat64(),
			tx.Type(),
			string(tx.Source),
		})
	}
	if err := writeRows(f, SheetTransactions, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetTransactions, "A1", "F1", header); err != nil {
		return err
	}
	if len(txs) > 0 {
		if err := f.SetCellStyle(SheetTransactions, "D2", fmt.Sprintf("D%d", len(txs)+1), money); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetTransactions, "B", "B", 48); err != nil {
		return err
	}
	return f.SetColWidth(SheetTransactions, "C", "F", 16)
}

func writeMonthly(f *excelize.File, s *Summary, header, money int) error {
	rows := make([][]interface{}, 0, len(s.Monthly)+1)
	rows = append(rows, []interface{}{"Month", "Inflow", "Outflow", "Net"})
	for _, m := range s.Monthly {
		rows = append(rows, []interface{}{
			m.Month,
			m.Inflow.InexactFloat64(),
			m.Outflow.InexactFloat64(),
			m.Net.InexactFloat64(),
		})
	}
	if err := writeRows(f, SheetMonthly, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetMonthly, "A1", "D1", header); err != nil {
		return err
	}
	n := len(s.Monthly)
	if n > 0 {
		if err := f.SetCellStyle(SheetMonthly, "B2", fmt.Sprintf("D%d", n+1), money); err != nil {
			return err
		}
		chart := &excelize.Chart{
			Type: excelize.Col,
			Series: []excelize.ChartSeries{
				{
					Name:       fmt.Sprintf("'%s'!$B$1", SheetMonthly),
					Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", SheetMonthly, n+1),
					Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", SheetMonthly, n+1),
				},
				{
					Name:       fmt.Sprintf("'%s'!$C$1", SheetMonthly),
					Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", SheetMonthly, n+1),
					Values:     fmt.Sprintf("'%s'!$C$2:$C$%d", SheetMonthly, n+1),
				},
			},
			Title: []excelize.RichTextRun{{Text: "Monthly Cash Flow"}},
		}
		if err := f.AddChart(SheetMonthly, "F2", chart); err != nil {
			return fmt.Errorf("report: adding monthly chart: %w", err)
		}
	}
	return f.SetColWidth(SheetMonthly, "A", "D", 14)
}

func writeCategories(f *excelize.File, s *Summary, header, money int) error {
	rows := make([][]interface{}, 0, len(s.Categories)+1)
	rows = append(rows, []interface{}{"Category", "Amount", "Transactions", "% of Expenses"})
	for _, c := range s.Categories {
		rows = append(rows, []interface{}{
			c.Category,
			c.Amount.InexactFloat64(),
			c.Count,
			c.PctOfExpenses.InexactFloat64(),
		})
	}
	if err := writeRows(f, SheetCategories, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetCategories, "A1", "D1", header); err != nil {
		return err
	}
	if n := len(s.Categories); n > 0 {
		if err := f.SetCellStyle(SheetCategories, "B2", fmt.Sprintf("B%d", n+1), money); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetCategories, "A", "D", 18)
}

func writeHowTo(f *excelize.File) error {
	rows := [][]interface{}{
		{"How to Use Your CFO Pack", ""},
		{"", ""},
		{"What is this?", "Your bank statement converted into a financial report with automatic categorization."},
		{"", ""},
		{"Dashboard", "Key metrics for the whole statement period."},
		{"All Transactions", "Every extracted transaction with its category."},
		{"Monthly Analysis", "Month-by-month inflow, outflow, and net."},
		{"Category Analysis", "Spending by category with share of total expenses."},
		{"", ""},
		{"Tips", "Review the Uncategorized rows and compare months to spot trends."},
		{"Note", "Automatic categorization is approximate; review before using for tax purposes."},
	}
	if err := writeRows(f, SheetHowTo, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetHowTo, "A", "A", 24); err != nil {
		return err
	}
	return f.SetColWidth(SheetHowTo, "B", "B", 90)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("report: cell name for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("report: writing row %d of %q: %w", i+1, sheet, err)
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }
