package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gosimple/slug"
	"github.com/jung-kurt/gofpdf"

	"github.com/douanenc/backend/internal/models"
)

const letterhead = "Administration Douaniere de Nouvelle-Caledonie"

// Renderer produces PDF artifacts for documents, certificates of visit
// and payment notices. Every render is a pure function of committed
// data, so a lost artifact can always be regenerated.
type Renderer struct {
	storageDir string
}

// NewRenderer creates a renderer writing into storageDir
func NewRenderer(storageDir string) (*Renderer, error) {
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create pdf storage dir: %w", err)
	}
	return &Renderer{storageDir: storageDir}, nil
}

// CertificatePath returns the canonical artifact path for a control's
// certificate of visit.
func (r *Renderer) CertificatePath(control *models.Control) string {
	name := fmt.Sprintf("certificat-visite-%s-%s", slug.Make(control.DeclarationID), control.ID.String()[:8])
	return filepath.Join(r.storageDir, name+".pdf")
}

// PaymentNoticePath returns the canonical artifact path for a fine's
// payment notice.
func (r *Renderer) PaymentNoticePath(fine *models.CustomsFine) string {
	name := fmt.Sprintf("avis-paiement-%s-%s", slug.Make(fine.DeclarationID), fine.ID.String()[:8])
	return filepath.Join(r.storageDir, name+".pdf")
}

// DocumentPath returns the artifact path for a rendered document.
func (r *Renderer) DocumentPath(doc *models.Document) string {
	name := fmt.Sprintf("%s-%s", slug.Make(doc.Title), doc.ID.String()[:8])
	return filepath.Join(r.storageDir, name+".pdf")
}

// RenderCertificateOfVisit renders the certificate documenting a
// non-compliance finding and returns the artifact path.
func (r *Renderer) RenderCertificateOfVisit(control *models.Control, declaration *models.Declaration) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	r.header(pdf, "Certificat de Visite")

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Declaration")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	r.field(pdf, "N. Declaration", control.DeclarationID)
	if declaration != nil {
		r.field(pdf, "Importateur", declaration.ImporterName)
		r.field(pdf, "Marchandises", declaration.GoodsDescription)
		r.field(pdf, "Pays d'origine", declaration.OriginCountry)
		r.field(pdf, "Valeur CFR", fmt.Sprintf("%.0f XPF", declaration.ValueCFR))
		r.field(pdf, "Bureau", declaration.CustomsOffice)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Constatations")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	if control.NonComplianceType != nil {
		r.field(pdf, "Type de non-conformite", string(*control.NonComplianceType))
	}
	if control.NonComplianceDetails != nil {
		r.field(pdf, "Details", *control.NonComplianceDetails)
	}
	if control.FiscalImpact != nil {
		r.field(pdf, "Impact fiscal", fmt.Sprintf("%.0f XPF", *control.FiscalImpact))
	}
	if control.ApplicableRegulation != nil {
		r.field(pdf, "Reglementation applicable", *control.ApplicableRegulation)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Verifications")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	for _, check := range control.ComplianceChecks {
		pdf.Cell(0, 6, fmt.Sprintf("[%s] %s", check.Status, check.Item))
		pdf.Ln(6)
	}

	r.footer(pdf, control.ControlOfficerName)

	path := r.CertificatePath(control)
	return path, r.write(pdf, path)
}

// RenderPaymentNotice renders the payment notice for a customs fine
// and returns the artifact path.
func (r *Renderer) RenderPaymentNotice(fine *models.CustomsFine, declaration *models.Declaration) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	r.header(pdf, "Avis de Paiement - Amende Douaniere")

	pdf.SetFont("Arial", "", 11)
	r.field(pdf, "N. Declaration", fine.DeclarationID)
	if fine.SydoniaLONumber != nil {
		r.field(pdf, "N. Liquidation (LO)", *fine.SydoniaLONumber)
	}
	r.field(pdf, "Reglementation", fine.RegulationCode)
	r.field(pdf, "Montant", fmt.Sprintf("%.0f XPF", fine.Amount))
	if declaration != nil {
		r.field(pdf, "Importateur", declaration.ImporterName)
		r.field(pdf, "Adresse", declaration.ImporterAddress)
	}

	r.footer(pdf, "")

	path := r.PaymentNoticePath(fine)
	return path, r.write(pdf, path)
}

// RenderDocument renders a drafted document against its template
// schema and returns the artifact path.
func (r *Renderer) RenderDocument(doc *models.Document, template *models.Template) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	r.header(pdf, doc.Title)

	pdf.SetFont("Arial", "", 11)
	r.field(pdf, "Type", doc.DocumentType)
	r.field(pdf, "Statut", string(doc.Status))
	r.field(pdf, "Cree par", doc.CreatedByName)
	r.field(pdf, "Date de creation", doc.CreatedAt.Format("02/01/2006 15:04"))
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Contenu")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	for _, field := range template.Fields {
		value := ""
		if v, ok := doc.Content[field.Name]; ok && v != nil {
			value = fmt.Sprintf("%v", v)
		}
		r.field(pdf, field.Label, value)
	}

	if len(doc.History) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Historique")
		pdf.Ln(10)
		pdf.SetFont("Arial", "", 9)
		for _, entry := range doc.History {
			line := fmt.Sprintf("%s - %s (%s)", entry.Timestamp.Format("02/01/2006 15:04"), entry.Action, entry.UserName)
			pdf.Cell(0, 5, line)
			pdf.Ln(5)
		}
	}

	r.footer(pdf, doc.CreatedByName)

	path := r.DocumentPath(doc)
	return path, r.write(pdf, path)
}

func (r *Renderer) header(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, letterhead)
	pdf.Ln(10)
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, title)
	pdf.Ln(14)
}

func (r *Renderer) field(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(60, 6, label+":")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 6, value, "", "L", false)
}

func (r *Renderer) footer(pdf *gofpdf.Fpdf, author string) {
	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 9)
	line := fmt.Sprintf("Document genere le %s", time.Now().Format("02/01/2006 15:04"))
	if author != "" {
		line += " - " + author
	}
	pdf.Cell(0, 6, line)
}

func (r *Renderer) write(pdf *gofpdf.Fpdf, path string) error {
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write pdf %s: %w", path, err)
	}
	return nil
}
