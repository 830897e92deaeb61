package report

import (
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
)

// Renderer turns a Report into an output artifact
type Renderer interface {
	Render(w io.Writer, rep *Report) error
	ContentType() string
}

const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginX      = 15.0
	contentWidth = pageWidth - 2*marginX
	questionCol  = 108.0
	answerCol    = contentWidth - questionCol
	lineHeight   = 5.0
	cellPadding  = 2.0
)

type rgb struct{ r, g, b int }

var (
	brandBlue  = rgb{0, 156, 217}
	brandNavy  = rgb{27, 58, 87}
	textDark   = rgb{51, 51, 51}
	textMuted  = rgb{110, 110, 110}
	rowShade   = rgb{242, 247, 251}
	ruleColour = rgb{221, 221, 221}

	segmentColours = map[string]rgb{
		"critical": {220, 53, 69},
		"poor":     {253, 126, 20},
		"fair":     {255, 193, 7},
		"good":     {40, 167, 69},
	}
)

//go:embed fonts/DejaVuSansCondensed.ttf
var defaultFont []byte

//go:embed fonts/DejaVuSansCondensed-Bold.ttf
var defaultBoldFont []byte

const fontFamily = "report"

// PDFRenderer renders reports as A4 PDF documents. Text is set in an embedded
// DejaVu Sans face covering Latin and Arabic unless WithUnicodeFont replaces it.
type PDFRenderer struct {
	fontPath     string
	boldFontPath string
}

// PDFOption configures a PDFRenderer
type PDFOption func(*PDFRenderer)

// WithUnicodeFont replaces the embedded font with TrueType files on disk.
// An empty bold path reuses the regular face.
func WithUnicodeFont(regular, bold string) PDFOption {
	return func(r *PDFRenderer) {
		r.fontPath = regular
		r.boldFontPath = bold
	}
}

// NewPDFRenderer creates a PDF renderer
func NewPDFRenderer(opts ...PDFOption) *PDFRenderer {
	r := &PDFRenderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ContentType returns the MIME type of rendered output
func (r *PDFRenderer) ContentType() string {
	return "application/pdf"
}

func (r *PDFRenderer) addFonts(pdf *fpdf.Fpdf) error {
	regular, bold := defaultFont, defaultBoldFont
	if r.fontPath != "" {
		var err error
		if regular, err = os.ReadFile(r.fontPath); err != nil {
			return err
		}
		bold = regular
		if r.boldFontPath != "" {
			if bold, err = os.ReadFile(r.boldFontPath); err != nil {
				return err
			}
		}
	}
	pdf.AddUTF8FontFromBytes(fontFamily, "", regular)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", bold)
	return pdf.Error()
}

// Render writes rep as a PDF document to w
func (r *PDFRenderer) Render(w io.Writer, rep *Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginX, 15, marginX)
	pdf.SetAutoPageBreak(false, 0)

	if err := r.addFonts(pdf); err != nil {
		return fmt.Errorf("failed to load report font: %w", err)
	}

	doc := &pdfDoc{
		pdf: pdf,
		rep: rep,
		rtl: rep.Direction == "rtl",
	}
	if doc.rtl {
		pdf.RTL()
	}

	pdf.SetTitle(rep.Letterhead.Title, true)
	pdf.SetAuthor(rep.Letterhead.Organization, true)

	for _, page := range rep.Pages {
		pdf.AddPage()
		switch page.Kind {
		case PageSummary:
			doc.summaryPage(page)
		case PageAnswers:
			doc.answersPage(page)
		}
		doc.pageFooter(page)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

type pdfDoc struct {
	pdf *fpdf.Fpdf
	rep *Report
	rtl bool
}

func (d *pdfDoc) font(style string, size float64, c rgb) {
	d.pdf.SetFont(fontFamily, style, size)
	d.pdf.SetTextColor(c.r, c.g, c.b)
}

// text drops runes outside the Basic Multilingual Plane, which the font width tables
// do not index. In right-to-left documents embedded left-to-right runs are pre-reversed
// so they read correctly after the writer mirrors the whole line.
func (d *pdfDoc) text(s string) string {
	s = strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return -1
		}
		return r
	}, s)
	if d.rtl {
		s = reverseLTRRuns(s)
	}
	return s
}

// reverseLTRRuns reverses every run of non-Arabic text between its first and last
// letter or digit, leaving the surrounding spaces and punctuation in place.
func reverseLTRRuns(s string) string {
	runes := []rune(s)
	strong := func(r rune) bool {
		return (unicode.IsLetter(r) || unicode.IsDigit(r)) && !unicode.Is(unicode.Arabic, r)
	}

	for i := 0; i < len(runes); {
		if !strong(runes[i]) {
			i++
			continue
		}
		end := i
		for j := i; j < len(runes) && !unicode.Is(unicode.Arabic, runes[j]); j++ {
			if strong(runes[j]) {
				end = j
			}
		}
		for l, r := i, end; l < r; l, r = l+1, r-1 {
			runes[l], runes[r] = runes[r], runes[l]
		}
		i = end + 1
	}
	return string(runes)
}

func (d *pdfDoc) align() string {
	if d.rtl {
		return "R"
	}
	return "L"
}

func (d *pdfDoc) letterhead(compact bool) {
	lh := d.rep.Letterhead
	height := 28.0
	if compact {
		height = 16
	}

	d.pdf.SetFillColor(brandBlue.r, brandBlue.g, brandBlue.b)
	d.pdf.Rect(0, 0, pageWidth, height, "F")

	d.pdf.SetXY(marginX, 6)
	d.font("B", 14, rgb{255, 255, 255})
	d.pdf.CellFormat(contentWidth, 7, d.text(lh.Organization), "", 1, d.align(), false, 0, "")
	if !compact {
		d.pdf.SetX(marginX)
		d.font("", 8, rgb{255, 255, 255})
		d.pdf.CellFormat(contentWidth, 5, d.text(lh.Tagline), "", 1, d.align(), false, 0, "")
	}
	d.pdf.SetY(height + 8)
}

func (d *pdfDoc) summaryPage(page Page) {
	d.letterhead(false)

	lh := d.rep.Letterhead
	d.font("B", 18, brandNavy)
	d.pdf.CellFormat(contentWidth, 9, d.text(lh.Title), "", 1, "C", false, 0, "")
	d.font("", 10, textMuted)
	d.pdf.CellFormat(contentWidth, 6, d.text(lh.Date), "", 1, "C", false, 0, "")
	d.pdf.Ln(6)

	d.infoBlock(d.rep.Respondent)
	d.pdf.Ln(6)
	d.scoreBlock(d.rep.Score)
}

func (d *pdfDoc) sectionTitle(title string) {
	d.font("B", 12, brandNavy)
	d.pdf.CellFormat(contentWidth, 8, d.text(title), "B", 1, d.align(), false, 0, "")
	d.pdf.Ln(2)
}

func (d *pdfDoc) infoBlock(block InfoBlock) {
	d.sectionTitle(block.Title)

	const labelWidth = 40.0
	for _, f := range block.Fields {
		label := d.text(f.Label + ":")
		value := d.text(f.Value)
		if d.rtl {
			d.font("", 10, textDark)
			d.pdf.CellFormat(contentWidth-labelWidth, 7, value, "", 0, "R", false, 0, "")
			d.font("B", 10, textDark)
			d.pdf.CellFormat(labelWidth, 7, label, "", 1, "R", false, 0, "")
			continue
		}
		d.font("B", 10, textDark)
		d.pdf.CellFormat(labelWidth, 7, label, "", 0, "L", false, 0, "")
		d.font("", 10, textDark)
		d.pdf.CellFormat(contentWidth-labelWidth, 7, value, "", 1, "L", false, 0, "")
	}
}

func (d *pdfDoc) scoreBlock(sb ScoreBlock) {
	d.sectionTitle(sb.Label)

	d.font("B", 28, brandBlue)
	d.pdf.CellFormat(contentWidth, 14, fmt.Sprintf("%d / %d", sb.Value, sb.Max), "", 1, "C", false, 0, "")

	colour := segmentColours[sb.Gauge.Segment]
	d.font("B", 14, colour)
	d.pdf.CellFormat(contentWidth, 8, d.text(sb.Result), "", 1, "C", false, 0, "")

	d.gauge(sb.Gauge.Stops, sb.Gauge.Labels, sb.Gauge.Angle)

	d.font("", 10, textDark)
	d.pdf.SetX(marginX)
	d.pdf.MultiCell(contentWidth, lineHeight+0.5, d.text(sb.Suggestion), "", "C", false)
}

// gauge draws a half-circle dial with one arc per segment and a needle at angle
// (0 = empty, 180 = full)
func (d *pdfDoc) gauge(stops []int, labels []string, angle float64) {
	const radius = 30.0
	cx := pageWidth / 2
	cy := d.pdf.GetY() + radius + 6

	segments := []string{"critical", "poor", "fair", "good"}
	d.pdf.SetLineWidth(7)
	for i := 0; i+1 < len(stops) && i < len(segments); i++ {
		c := segmentColours[segments[i]]
		d.pdf.SetDrawColor(c.r, c.g, c.b)
		start := 180 - float64(stops[i+1])*1.8
		end := 180 - float64(stops[i])*1.8
		d.pdf.Arc(cx, cy, radius, radius, 0, start, end, "D")
	}

	theta := (180 - angle) * math.Pi / 180
	d.pdf.SetLineWidth(1)
	d.pdf.SetDrawColor(brandNavy.r, brandNavy.g, brandNavy.b)
	d.pdf.Line(cx, cy, cx+(radius-8)*math.Cos(theta), cy-(radius-8)*math.Sin(theta))
	d.pdf.SetFillColor(brandNavy.r, brandNavy.g, brandNavy.b)
	d.pdf.Circle(cx, cy, 2, "F")

	d.pdf.SetY(cy + 4)
	if len(labels) > 0 {
		d.font("", 8, textMuted)
		width := contentWidth / float64(len(labels))
		d.pdf.SetX(marginX)
		for i, label := range labels {
			text := label
			if i+1 < len(stops) {
				text = fmt.Sprintf("%s (%d-%d)", label, stops[i], stops[i+1])
			}
			d.pdf.CellFormat(width, 5, d.text(text), "", 0, "C", false, 0, "")
		}
		d.pdf.Ln(8)
	}
	d.pdf.SetLineWidth(0.2)
}

func (d *pdfDoc) answersPage(page Page) {
	d.letterhead(true)

	if page.Title != "" {
		d.sectionTitle(page.Title)
	}

	qx, ax := marginX, marginX+questionCol
	if d.rtl {
		qx, ax = marginX+answerCol, marginX
	}

	if page.Header != nil {
		y := d.pdf.GetY()
		d.pdf.SetFillColor(brandNavy.r, brandNavy.g, brandNavy.b)
		d.pdf.Rect(marginX, y, contentWidth, 8, "F")
		d.font("B", 10, rgb{255, 255, 255})
		d.pdf.SetXY(qx+cellPadding, y)
		d.pdf.CellFormat(questionCol-2*cellPadding, 8, d.text(page.Header.Question), "", 0, d.align(), false, 0, "")
		d.pdf.SetXY(ax+cellPadding, y)
		d.pdf.CellFormat(answerCol-2*cellPadding, 8, d.text(page.Header.Answer), "", 0, d.align(), false, 0, "")
		d.pdf.SetY(y + 8)
	}

	for _, row := range page.Rows {
		answer := row.Answer
		if row.Context != "" {
			answer += "\n" + row.Context
		}
		question := d.text(row.Question)
		answer = d.text(answer)

		d.font("", 9, textDark)
		lines := d.lineCount(question, questionCol-2*cellPadding)
		if n := d.lineCount(answer, answerCol-2*cellPadding); n > lines {
			lines = n
		}
		height := float64(lines)*lineHeight + 2*cellPadding

		y := d.pdf.GetY()
		if row.Shaded() {
			d.pdf.SetFillColor(rowShade.r, rowShade.g, rowShade.b)
			d.pdf.Rect(marginX, y, contentWidth, height, "F")
		}

		d.pdf.SetXY(qx+cellPadding, y+cellPadding)
		d.pdf.MultiCell(questionCol-2*cellPadding, lineHeight, question, "", d.align(), false)
		d.pdf.SetXY(ax+cellPadding, y+cellPadding)
		d.pdf.MultiCell(answerCol-2*cellPadding, lineHeight, answer, "", d.align(), false)

		d.pdf.SetDrawColor(ruleColour.r, ruleColour.g, ruleColour.b)
		d.pdf.Line(marginX, y+height, marginX+contentWidth, y+height)
		d.pdf.SetY(y + height)
	}
}

func (d *pdfDoc) lineCount(text string, width float64) int {
	count := 0
	for _, paragraph := range strings.Split(text, "\n") {
		n := len(d.pdf.SplitText(paragraph, width))
		if n == 0 {
			n = 1
		}
		count += n
	}
	return count
}

func (d *pdfDoc) pageFooter(page Page) {
	if page.ShowFooter {
		d.pdf.SetDrawColor(ruleColour.r, ruleColour.g, ruleColour.b)
		d.pdf.Line(marginX, pageHeight-28, pageWidth-marginX, pageHeight-28)
		d.pdf.SetXY(marginX, pageHeight-25)
		d.font("", 8, textMuted)
		d.pdf.CellFormat(contentWidth, 5, d.text(d.rep.Footer.Copyright), "", 1, "C", false, 0, "")
		d.font("B", 8, brandNavy)
		d.pdf.CellFormat(contentWidth, 5, d.text(d.rep.Footer.Tagline), "", 1, "C", false, 0, "")
	}

	d.pdf.SetXY(marginX, pageHeight-12)
	d.font("", 8, textMuted)
	d.pdf.CellFormat(contentWidth, 5, fmt.Sprintf("%d / %d", page.Number, len(d.rep.Pages)), "", 0, "C", false, 0, "")
}
