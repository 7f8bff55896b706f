package document

import (
	"math"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	fontFamily   = "Helvetica"
	leftMargin   = 15.0
	topMargin    = 15.0
	bottomMargin = 25.0
	headerHeight = 22.0
)

// layout is a running cursor over an fpdf document. Each helper checks
// for a page break before drawing so a block only straddles pages when
// it is taller than a page.
type layout struct {
	pdf *fpdf.Fpdf
	tr  func(string) string

	pageWidth    float64
	pageHeight   float64
	contentWidth float64
	y            float64

	outline []Block
}

func newLayout(pdf *fpdf.Fpdf) *layout {
	w, h := pdf.GetPageSize()
	return &layout{
		pdf:          pdf,
		tr:           pdf.UnicodeTranslatorFromDescriptor(""),
		pageWidth:    w,
		pageHeight:   h,
		contentWidth: w - 2*leftMargin,
		y:            topMargin,
	}
}

func (l *layout) checkPageBreak(needed float64) {
	if l.y+needed > l.pageHeight-bottomMargin {
		l.pdf.AddPage()
		l.y = topMargin
	}
}

// fitBlock keeps a block of height h on one page. A block taller than a
// page starts on a fresh page and continues line by line.
func (l *layout) fitBlock(h float64) {
	l.checkPageBreak(math.Min(h, l.pageHeight-topMargin-bottomMargin))
}

// advance moves the cursor down one line, continuing on a new page when
// the line would cross the bottom margin
func (l *layout) advance(lineHeight float64) {
	if l.y+lineHeight > l.pageHeight-bottomMargin {
		l.pdf.AddPage()
		l.y = topMargin
		return
	}
	l.y += lineHeight
}

func (l *layout) setFont(style string, size float64) {
	l.pdf.SetFont(fontFamily, style, size)
}

func (l *layout) setTextGray(v int) {
	l.pdf.SetTextColor(v, v, v)
}

// split wraps text at word boundaries using the current font
func (l *layout) split(text string, width float64) []string {
	text = l.tr(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	raw := l.pdf.SplitLines([]byte(text), width)
	lines := make([]string, 0, len(raw))
	for _, b := range raw {
		lines = append(lines, string(b))
	}
	return lines
}

// begin opens an outline entry on the page where the block starts
func (l *layout) begin(kind BlockKind, title string) *Block {
	l.outline = append(l.outline, Block{
		Kind:  kind,
		Title: title,
		Page:  l.pdf.PageNo(),
	})
	return &l.outline[len(l.outline)-1]
}

func (l *layout) sectionHeader(title string) {
	l.checkPageBreak(15)
	l.y += 4

	l.pdf.SetFillColor(0, 0, 0)
	l.pdf.Rect(leftMargin, l.y-4, l.contentWidth, 8, "F")

	l.setFont("B", 9)
	l.pdf.SetTextColor(255, 255, 255)
	l.pdf.Text(leftMargin+3, l.y+1, l.tr(strings.ToUpper(title)))
	l.setTextGray(0)

	l.y += 8
}

// text writes a wrapped paragraph and returns its line count
func (l *layout) text(text string, size float64, style string) int {
	l.setFont(style, size)
	l.setTextGray(0)

	lines := l.split(text, l.contentWidth)
	lineHeight := size * 0.45

	l.checkPageBreak(float64(len(lines))*lineHeight + 4)
	for _, line := range lines {
		l.checkPageBreak(lineHeight)
		l.pdf.Text(leftMargin, l.y, line)
		l.y += lineHeight
	}
	l.y += 2

	return len(lines)
}

func (l *layout) labelValue(label, value string) {
	if strings.TrimSpace(value) == "" {
		value = "N/A"
	}

	l.setFont("B", 9)
	l.setTextGray(0)
	label = l.tr(label)
	x := leftMargin + l.pdf.GetStringWidth(label) + 2

	l.setFont("", 9)
	lines := l.split(value, l.contentWidth-(x-leftMargin))
	l.fitBlock(float64(len(lines)-1)*4 + 5)

	l.setFont("B", 9)
	l.pdf.Text(leftMargin, l.y, label)

	l.setFont("", 9)
	for i, line := range lines {
		if i > 0 {
			l.advance(4)
		}
		l.pdf.Text(x, l.y, line)
	}
	l.y += 5
}

func (l *layout) bullet(text string) int {
	l.setFont("", 8)
	l.setTextGray(0)

	lines := l.split("• "+text, l.contentWidth-5)
	l.fitBlock(float64(len(lines))*3.8 + 1)

	for i, line := range lines {
		if i > 0 {
			l.advance(3.8)
		}
		l.pdf.Text(leftMargin+3, l.y, line)
	}
	l.y += 3.8 + 1

	return len(lines)
}

// checkbox draws an acknowledgment line. A checked box is filled and
// carries the patient initials.
func (l *layout) checkbox(text, initials string, checked bool) int {
	l.setFont("", 8)
	lines := l.split(text, l.contentWidth-10)
	l.checkPageBreak(float64(len(lines))*4.5 + 3)

	l.pdf.SetDrawColor(0, 0, 0)
	if checked {
		l.pdf.SetFillColor(0, 0, 0)
		l.pdf.Rect(leftMargin, l.y-3, 5, 5, "FD")

		l.setFont("B", 6)
		l.pdf.SetTextColor(255, 255, 255)
		s := l.tr(initials)
		l.pdf.Text(leftMargin+2.5-l.pdf.GetStringWidth(s)/2, l.y+0.5, s)
		l.setTextGray(0)
	} else {
		l.pdf.Rect(leftMargin, l.y-3, 5, 5, "D")
	}

	l.setFont("", 8)
	for i, line := range lines {
		l.pdf.Text(leftMargin+8, l.y+float64(i)*4, line)
	}
	l.y += float64(len(lines))*4 + 2

	return len(lines)
}

// callout draws a filled box around a heading and wrapped body text
func (l *layout) callout(heading, body string) int {
	l.setFont("", 8)
	lines := l.split(body, l.contentWidth-6)
	height := 8 + float64(len(lines))*3.8 + 2

	l.checkPageBreak(height + 2)

	l.pdf.SetFillColor(255, 243, 205)
	l.pdf.Rect(leftMargin, l.y, l.contentWidth, height, "F")

	l.pdf.SetTextColor(146, 64, 14)
	l.setFont("B", 8.5)
	l.pdf.Text(leftMargin+3, l.y+5, l.tr(heading))

	l.setFont("", 8)
	for i, line := range lines {
		l.pdf.Text(leftMargin+3, l.y+9.5+float64(i)*3.8, line)
	}
	l.setTextGray(0)

	l.y += height + 3
	return len(lines) + 1
}

func (l *layout) textRight(x, y float64, s string) {
	s = l.tr(s)
	l.pdf.Text(x-l.pdf.GetStringWidth(s), y, s)
}

func (l *layout) textCenter(y float64, s string) {
	s = l.tr(s)
	l.pdf.Text((l.pageWidth-l.pdf.GetStringWidth(s))/2, y, s)
}
