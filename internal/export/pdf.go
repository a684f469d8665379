// Package export renders a collection as a printable PDF stock report.
package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/vbonduro/restock/internal/domain"
)

type column struct {
	title string
	width float64
	align string
	value func(domain.Item) string
}

const (
	pageMargin  = 12.0
	rowHeight   = 7.0
	footerSpace = 15.0
)

func columns(c domain.Collection) []column {
	cols := []column{
		{"Name", 70, "L", func(i domain.Item) string { return i.Name }},
		{"Category", 40, "L", func(i domain.Item) string { return i.Category }},
	}
	if c.HasSector() {
		cols = append(cols, column{"Sector", 35, "L", func(i domain.Item) string { return i.Sector }})
	}
	return append(cols,
		column{"Qty", 18, "R", func(i domain.Item) string { return strconv.Itoa(i.CurrentQuantity) }},
		column{"Reorder", 20, "R", func(i domain.Item) string { return strconv.Itoa(i.ReorderPoint) }},
		column{"Status", 18, "C", func(i domain.Item) string { return string(i.Status()) }},
	)
}

// Filename is the download name for an export of c made at t.
func Filename(c domain.Collection, t time.Time) string {
	return fmt.Sprintf("%s-%s.pdf", c, t.Format("2006-01-02"))
}

// WritePDF renders items, in the order given, as a table and writes the
// document to w.
func WritePDF(w io.Writer, c domain.Collection, items []domain.Item, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, footerSpace)
	pdf.SetTitle(c.Title()+" stock", true)
	pdf.SetCreationDate(generatedAt)
	pdf.AliasNbPages("")

	// Core fonts are cp1252; names with accents must be translated.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	cols := columns(c)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-footerSpace)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		pdf.SetTextColor(0, 0, 0)
		for _, col := range cols {
			pdf.CellFormat(col.width, rowHeight, col.title, "1", 0, col.align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(c.Title()+" stock"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s - %d items", generatedAt.Format("2006-01-02 15:04"), len(items)), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	header()

	_, pageHeight := pdf.GetPageSize()
	for _, item := range items {
		if pdf.GetY()+rowHeight > pageHeight-footerSpace-pageMargin {
			pdf.AddPage()
			header()
		}
		if item.IsLow() {
			pdf.SetTextColor(180, 0, 0)
		} else {
			pdf.SetTextColor(0, 0, 0)
		}
		for _, col := range cols {
			pdf.CellFormat(col.width, rowHeight, tr(col.value(item)), "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
