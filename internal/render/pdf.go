// Package render lays out meal plans as downloadable PDF documents.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pageza/mealplango/backend/internal/types"
)

// Filename is the attachment name sent with every plan document.
const Filename = "MealPlanGo-Meal-Plan-Grocery.pdf"

// Preview limits for callers on the free trial.
const (
	PreviewDays         = 2
	PreviewGroceryItems = 8
)

const (
	lockedDayText     = "Sign in to view the full plan for this day."
	lockedGroceryText = "Sign in to view the full grocery list…"
)

var (
	colorText    = [3]int{26, 26, 38}
	colorMuted   = [3]int{127, 140, 141}
	colorDivider = [3]int{204, 217, 230}
	colorAccent  = [3]int{46, 125, 50}
)

// PDFRenderer renders meal plans with the fpdf core fonts.
type PDFRenderer struct {
	compress bool
}

// NewPDFRenderer creates a renderer producing compressed documents.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{compress: true}
}

// Render lays out plan. In preview mode only the first days and the head of
// the grocery list are shown.
func (r *PDFRenderer) Render(plan *types.MealPlan, opts types.RenderOptions) ([]byte, error) {
	if plan == nil {
		return nil, fmt.Errorf("nil meal plan")
	}
	people := opts.PeopleCount
	if people < 1 {
		people = 1
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetTitle("7-Day Meal Plan", true)
	pdf.SetCreator("MealPlanGo", true)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 22)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	w := &writer{pdf: pdf, tr: tr}
	pdf.AddPage()
	w.writeHeader(people)

	for i, day := range plan.Meals {
		w.heading(fmt.Sprintf("Day %d", i+1), 14)
		if opts.Preview && i >= PreviewDays {
			w.paragraph(lockedDayText, "I", colorMuted)
			w.divider()
			continue
		}
		for _, slot := range day.Slots() {
			w.writeMeal(slot)
		}
		w.divider()
	}

	w.writeGroceries(plan.GroceryList, opts.Preview)
	w.addPageNumbers()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output error: %w", err)
	}
	return buf.Bytes(), nil
}

type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (w *writer) setColor(c [3]int) {
	w.pdf.SetTextColor(c[0], c[1], c[2])
}

func (w *writer) writeHeader(people int) {
	pageWidth, _ := w.pdf.GetPageSize()

	w.pdf.SetFillColor(colorAccent[0], colorAccent[1], colorAccent[2])
	w.pdf.Rect(0, 0, pageWidth, 6, "F")

	w.pdf.SetY(16)
	w.pdf.SetFont("Helvetica", "BU", 20)
	w.setColor(colorText)
	w.pdf.CellFormat(0, 12, w.tr("7-Day Meal Plan"), "", 1, "C", false, 0, "")
	w.pdf.Ln(4)

	w.pdf.SetFont("Helvetica", "", 12)
	w.pdf.CellFormat(0, 7, w.tr(fmt.Sprintf("This plan is for %d person(s).", people)), "", 1, "L", false, 0, "")
	w.divider()
}

func (w *writer) writeMeal(m types.NamedMeal) {
	title := fmt.Sprintf("%s: %s", m.Slot, strings.TrimSpace(m.Meal.Dish))
	if d := strings.TrimSpace(m.Meal.CookingDuration); d != "" {
		title += fmt.Sprintf(" (%s)", d)
	}
	w.paragraph(title, "B", colorText)

	w.paragraph("Ingredients:", "B", colorText)
	w.numbered(m.Meal.Ingredients)
	w.paragraph("Recipe:", "B", colorText)
	w.numbered(m.Meal.Recipe)
	w.pdf.Ln(2)
}

func (w *writer) writeGroceries(items []types.GroceryItem, preview bool) {
	w.heading("Grocery List", 14)

	shown := items
	if preview && len(shown) > PreviewGroceryItems {
		shown = shown[:PreviewGroceryItems]
	}
	for _, it := range shown {
		line := "• " + strings.TrimSpace(it.Ingredient)
		if q := strings.TrimSpace(it.Quantity); q != "" {
			line += " — " + q
		}
		w.paragraph(line, "", colorText)
	}
	if preview && len(items) > PreviewGroceryItems {
		w.paragraph(lockedGroceryText, "I", colorMuted)
	}
}

func (w *writer) heading(text string, size float64) {
	w.pdf.SetFont("Helvetica", "BU", size)
	w.setColor(colorText)
	w.pdf.CellFormat(0, 9, w.tr(text), "", 1, "L", false, 0, "")
	w.pdf.Ln(2)
}

func (w *writer) paragraph(text, style string, color [3]int) {
	w.pdf.SetFont("Helvetica", style, 11)
	w.setColor(color)
	w.pdf.MultiCell(0, 5.5, w.tr(text), "", "L", false)
}

func (w *writer) numbered(lines []string) {
	for i, l := range lines {
		w.paragraph(fmt.Sprintf("%d. %s", i+1, strings.TrimSpace(l)), "", colorText)
	}
	w.pdf.Ln(1.5)
}

func (w *writer) divider() {
	pageWidth, _ := w.pdf.GetPageSize()
	left, _, right, _ := w.pdf.GetMargins()
	w.pdf.Ln(2)
	y := w.pdf.GetY()
	w.pdf.SetDrawColor(colorDivider[0], colorDivider[1], colorDivider[2])
	w.pdf.SetLineWidth(0.3)
	w.pdf.Line(left, y, pageWidth-right, y)
	w.pdf.Ln(8)
}

func (w *writer) addPageNumbers() {
	// Footers are drawn after layout so the total is known.
	w.pdf.SetAutoPageBreak(false, 0)
	total := w.pdf.PageCount()
	for i := 1; i <= total; i++ {
		w.pdf.SetPage(i)
		_, pageHeight := w.pdf.GetPageSize()
		w.pdf.SetY(pageHeight - 14)
		w.pdf.SetFont("Helvetica", "", 8)
		w.setColor(colorMuted)
		w.pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of %d", i, total), "", 0, "C", false, 0, "")
	}
}
