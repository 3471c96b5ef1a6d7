package infra

// pdf.go — PDF receipt generation using go-pdf/fpdf.
// Thermal receipt-style layout:
//   - Pharmacy name header
//   - Invoice number and timestamp
//   - Item table (product, batch/expiry line, quantity, total)
//   - Discount / tax lines (if applicable)
//   - Bold net total and change
//
// The output file is saved to storagePath/receipt_{invoice}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"pharmazine/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateReceiptPDF renders a committed sale as a PDF receipt.
// storagePath is the directory where the PDF will be written (created if
// needed). Returns the absolute path to the generated file.
func GenerateReceiptPDF(sale *model.Sale, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("receipt_%d.pdf", sale.InvoiceNumber)
	filePath := filepath.Join(storagePath, fileName)

	// 74mm x 105mm — close to thermal receipt paper
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8 // total margins = 8mm

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, "Pharmazine", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Sales Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Invoice info ─────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Invoice #%d", sale.InvoiceNumber), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sale.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	if sale.CustomerName != "" {
		pdf.CellFormat(contentW, 4, "Customer: "+sale.CustomerName, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	// ── Items ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	for _, item := range sale.Items {
		name := item.BatchNumber
		if item.Product != nil {
			name = item.Product.Name
		}
		pdf.CellFormat(contentW*0.6, 4, truncate(name, 28), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.1, 4, fmt.Sprintf("x%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(contentW*0.3, 4, item.TotalPrice.StringFixed(2), "", 1, "R", false, 0, "")

		pdf.SetFont("Helvetica", "I", 6)
		pdf.CellFormat(contentW, 3,
			fmt.Sprintf("batch %s  exp %s", item.BatchNumber, item.ExpiryDate.Format("01/2006")),
			"", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
	}
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	totalLine := func(label string, amount decimal.Decimal) {
		pdf.CellFormat(contentW*0.6, 4, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.4, 4, amount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	totalLine("Subtotal", sale.TotalAmount)
	if sale.Discount.IsPositive() {
		totalLine("Discount", sale.Discount.Neg())
	}
	if sale.Tax.IsPositive() {
		totalLine("Tax", sale.Tax)
	}

	pdf.SetFont("Helvetica", "B", 9)
	totalLine("TOTAL", sale.NetAmount)
	pdf.SetFont("Helvetica", "", 7)
	if sale.PaidAmount.GreaterThan(sale.NetAmount) {
		totalLine("Paid", sale.PaidAmount)
		totalLine("Change", sale.PaidAmount.Sub(sale.NetAmount))
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", filePath, err)
	}
	return filePath, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
