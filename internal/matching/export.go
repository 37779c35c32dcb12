package matching

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/anjanakv868/invoice-po-matching-tool/internal/extraction"
)

const (
	summarySheet = "Summary"
	invoiceSheet = "Invoice"
	poSheet      = "Purchase Order"
)

// ExportJSON returns the session's extracted analysis as indented JSON
func (s *Service) ExportJSON(id string) ([]byte, error) {
	session, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(session.Analysis, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling analysis: %w", err)
	}
	return data, nil
}

// ExportXLSX returns a workbook with the verdict and the current records
func (s *Service) ExportXLSX(id string) ([]byte, error) {
	session, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}

	data, err := buildWorkbook(session)
	if err != nil {
		return nil, fmt.Errorf("building workbook: %w", err)
	}
	return data, nil
}

func buildWorkbook(session *Session) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with Sheet1
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	reasons := strings.Join(session.Verdict.Reasons(), ", ")
	summary := [][]any{
		{"Field", "Invoice", "Purchase Order"},
		{"Number", session.Invoice.InvoiceNo, session.PO.PONo},
		{"Date", session.Invoice.Date, session.PO.Date},
		{"Vendor", session.Invoice.Vendor, session.PO.Vendor},
		{"Total", session.Invoice.Total, session.PO.Total},
		{},
		{"Status", string(session.Verdict.Status)},
		{"Reasons", reasons},
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 14)
	_ = f.SetColWidth(summarySheet, "B", "C", 32)

	if err := writeItemsSheet(f, invoiceSheet, session.Invoice.Items); err != nil {
		return nil, err
	}
	if err := writeItemsSheet(f, poSheet, session.PO.Items); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeItemsSheet(f *excelize.File, sheet string, items []extraction.LineItem) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]any{{"Description", "Quantity", "Price", "Line Total"}}
	for _, item := range items {
		rows = append(rows, []any{item.Description, item.Quantity, item.Price, item.Quantity * item.Price})
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}

	_ = f.SetColWidth(sheet, "A", "A", 40)
	_ = f.SetColWidth(sheet, "B", "D", 12)
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}
