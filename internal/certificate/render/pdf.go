// Package render produces certificate documents from issued certificate
// data.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"avalia/internal/certificate/models"
)

// PDFRenderer renders A4 landscape certificate documents. The validation
// URL is embedded both as text and as a QR code so a printed copy can be
// checked against the platform.
type PDFRenderer struct {
	publicBaseURL string
}

func NewPDFRenderer(publicBaseURL string) *PDFRenderer {
	return &PDFRenderer{publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// ValidationURL returns the public URL that resolves the certificate's
// validation code.
func (r *PDFRenderer) ValidationURL(validationCode string) string {
	return fmt.Sprintf("%s/certificates/validate/%s", r.publicBaseURL, validationCode)
}

func (r *PDFRenderer) Render(cert *models.Certificate) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	// Core fonts read cp1252, so every string goes through the translator or
	// accented Portuguese turns into mojibake.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Certificado de Participação"), true)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()

	pdf.SetLineWidth(0.8)
	pdf.SetDrawColor(30, 64, 124)
	pdf.Rect(8, 8, pageW-16, pageH-16, "D")

	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetTextColor(30, 64, 124)
	pdf.SetY(32)
	pdf.CellFormat(0, 14, "CERTIFICADO", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.SetTextColor(60, 60, 60)
	pdf.Ln(8)
	pdf.CellFormat(0, 8, "Certificamos que", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(20, 20, 20)
	pdf.CellFormat(0, 12, tr(cert.Metadata.UserName), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.SetTextColor(60, 60, 60)
	body := fmt.Sprintf("participou de %q", cert.Metadata.FormTitle)
	if cert.Metadata.Workload != "" {
		body += fmt.Sprintf(", com carga horária de %s", cert.Metadata.Workload)
	}
	body += fmt.Sprintf(", concluído em %s.", cert.Metadata.CompletionDate.Format("02/01/2006"))
	pdf.SetX(40)
	pdf.MultiCell(pageW-80, 7, tr(body), "", "C", false)

	if cert.Metadata.FormDescription != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetX(50)
		pdf.MultiCell(pageW-100, 5, tr(cert.Metadata.FormDescription), "", "C", false)
	}

	qr, err := qrcode.Encode(r.ValidationURL(cert.ValidationCode), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode validation qr: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("validation-qr", opts, bytes.NewReader(qr))
	pdf.ImageOptions("validation-qr", pageW-48, pageH-48, 28, 28, false, opts, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.SetXY(16, pageH-34)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Código de validação: %s", cert.ValidationCode)), "", 1, "L", false, 0, "")
	pdf.SetX(16)
	pdf.CellFormat(0, 5, fmt.Sprintf("Valide em: %s", r.ValidationURL(cert.ValidationCode)), "", 1, "L", false, 0, "")
	pdf.SetX(16)
	pdf.CellFormat(0, 5, fmt.Sprintf("Emitido em %s", cert.IssuedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
