package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/gorecipes/internal/recipe"
)

// newPDF returns an A4 document and a translator from UTF-8 to the
// code page of the built-in fonts.
func newPDF() (*gofpdf.Fpdf, func(string) string) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

func heading(pdf *gofpdf.Fpdf, tr func(string) string, text string, size float64) {
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.5, tr(text), "", "L", false)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 11)
}

// writeDetailsPDF renders a one-recipe card: title, facts line, ingredient
// list and numbered steps, with the source as a link.
func writeDetailsPDF(d recipe.Details, outPath string) error {
	pdf, tr := newPDF()
	title := d.Title
	if title == "" {
		title = "Recipe"
	}
	heading(pdf, tr, title, 18)

	var facts []string
	if d.Yields != "" {
		facts = append(facts, "Yields: "+d.Yields)
	}
	if d.TotalTimeMinutes > 0 {
		facts = append(facts, "Total time: "+formatMinutes(d.TotalTimeMinutes))
	}
	if d.Category != "" {
		facts = append(facts, "Category: "+d.Category)
	}
	if d.Ratings > 0 {
		facts = append(facts, "Rating: "+strconv.FormatFloat(d.Ratings, 'f', 1, 64))
	}
	if len(facts) > 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 5, tr(strings.Join(facts, "  |  ")), "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
	}
	if d.CanonicalURL != "" {
		source := d.SiteName
		if source == "" {
			source = d.Host
		}
		if source == "" {
			source = d.CanonicalURL
		}
		pdf.SetTextColor(0, 0, 180)
		pdf.WriteLinkString(5, tr(source), d.CanonicalURL)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(8)
	}

	if len(d.Ingredients) > 0 {
		heading(pdf, tr, "Ingredients", 14)
		for _, ing := range d.Ingredients {
			pdf.MultiCell(0, 6, tr("- "+ing), "", "L", false)
		}
		pdf.Ln(4)
	}
	steps := d.InstructionsList
	if len(steps) == 0 && d.Instructions != "" {
		steps = strings.Split(d.Instructions, "\n")
	}
	if len(steps) > 0 {
		heading(pdf, tr, "Instructions", 14)
		for i, s := range steps {
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", i+1, strings.TrimSpace(s))), "", "L", false)
			pdf.Ln(1)
		}
	}
	return pdf.OutputFileAndClose(outPath)
}

// writeBatchPDF renders an annotated result page as a table of links.
func writeBatchPDF(b *recipe.Batch, outPath string) error {
	pdf, tr := newPDF()
	heading(pdf, tr, fmt.Sprintf("Recipes %d-%d of %d", b.From, b.To, b.Count), 16)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(110, 7, "Recipe", "B", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Source", "B", 0, "L", false, 0, "")
	pdf.CellFormat(15, 7, "Site", "B", 0, "C", false, 0, "")
	pdf.CellFormat(15, 7, "Page", "B", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, h := range b.Hits {
		pdf.CellFormat(110, 6, tr(clip(h.Recipe.Label, 60)), "", 0, "L", false, 0, h.Recipe.URL)
		pdf.CellFormat(40, 6, tr(clip(h.Recipe.Source, 22)), "", 0, "L", false, 0, "")
		pdf.CellFormat(15, 6, flagMark(h.IsScrapable), "", 0, "C", false, 0, "")
		pdf.CellFormat(15, 6, flagMark(h.IsValid), "", 1, "C", false, 0, "")
	}
	return pdf.OutputFileAndClose(outPath)
}

func flagMark(v *bool) string {
	switch {
	case v == nil:
		return "?"
	case *v:
		return "yes"
	default:
		return "no"
	}
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%d min", m)
	}
	if m%60 == 0 {
		return fmt.Sprintf("%d h", m/60)
	}
	return fmt.Sprintf("%d h %d min", m/60, m%60)
}

func clip(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "..."
}
