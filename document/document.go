// Package document lays out a consent form as a paginated PDF. Rendering
// is synchronous and deterministic: the same snapshot always produces the
// same outline, and with the same snapshot time the same bytes.
package document

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	log "github.com/sirupsen/logrus"

	"github.com/bitmark-inc/consent-api/form"
	"github.com/bitmark-inc/consent-api/variant"
)

const (
	ContentType = "application/pdf"

	signatureImageName = "signature"
	signatureWidth     = 60.0
	signatureHeight    = 25.0

	sectionHeaderHeight = 12.0
	captionHeight       = 5.0
)

var ErrNoVariant = fmt.Errorf("snapshot has no variant")

type BlockKind string

const (
	BlockHeader          BlockKind = "header"
	BlockPatient         BlockKind = "patient"
	BlockSection         BlockKind = "section"
	BlockScreening       BlockKind = "screening"
	BlockCallout         BlockKind = "callout"
	BlockAcknowledgments BlockKind = "acknowledgments"
	BlockConsent         BlockKind = "consent"
	BlockSignature       BlockKind = "signature"
)

// Block is one entry of the layout outline
type Block struct {
	Kind  BlockKind `json:"kind"`
	Title string    `json:"title"`
	Page  int       `json:"page"`
	Lines int       `json:"lines"`
}

// Snapshot is the frozen input of a rendering
type Snapshot struct {
	Variant   *variant.Config
	Draft     form.Draft
	Signature []byte
	CreatedAt time.Time
}

type Document struct {
	Bytes             []byte
	Pages             int
	Outline           []Block
	SignatureEmbedded bool
}

type Renderer struct {
	compress bool
}

type RendererOption func(*Renderer)

// WithCompression toggles stream compression of the output
func WithCompression(on bool) RendererOption {
	return func(r *Renderer) { r.compress = on }
}

func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Warmup renders a throwaway document so font metrics are loaded before
// the first submission
func (r *Renderer) Warmup() error {
	reg, err := variant.Default()
	if err != nil {
		return err
	}

	types := reg.Types()
	if len(types) == 0 {
		return variant.ErrVariantNotFound
	}

	v, err := reg.Get(types[0])
	if err != nil {
		return err
	}

	_, err = r.Render(Snapshot{Variant: v, CreatedAt: time.Unix(0, 0).UTC()})
	return err
}

// Render lays out the snapshot. A missing or unreadable signature image
// is left out and the caption is kept.
func (r *Renderer) Render(s Snapshot) (*Document, error) {
	if s.Variant == nil {
		return nil, ErrNoVariant
	}

	v := s.Variant
	d := s.Draft

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(leftMargin, topMargin, leftMargin)
	pdf.SetCreationDate(s.CreatedAt)
	pdf.SetModificationDate(s.CreatedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(v.Title, true)
	pdf.SetCreator(v.Clinic.DisplayName, true)
	pdf.AliasNbPages("")

	l := newLayout(pdf)
	pdf.SetFooterFunc(func() { l.footer(v) })
	pdf.AddPage()

	l.header(v, d)
	l.patient(d)

	for _, sec := range v.Sections {
		l.section(sec)
	}

	if v.HasScreening() {
		l.screening(v, d)
	}

	if len(v.Acknowledgments) > 0 {
		l.acknowledgments(v, d)
	}

	l.consent(v)
	embedded := l.signature(d, s.Signature)

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	pages := pdf.PageNo()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return &Document{
		Bytes:             buf.Bytes(),
		Pages:             pages,
		Outline:           l.outline,
		SignatureEmbedded: embedded,
	}, nil
}

func (l *layout) header(v *variant.Config, d form.Draft) {
	b := l.begin(BlockHeader, v.Title)

	l.pdf.SetFillColor(0, 0, 0)
	l.pdf.Rect(0, 0, l.pageWidth, headerHeight, "F")
	l.pdf.SetTextColor(255, 255, 255)

	l.setFont("B", 16)
	l.pdf.Text(leftMargin, 10, l.tr(v.Clinic.Name))

	l.setFont("", 9)
	l.pdf.Text(leftMargin, 16, l.tr(v.Title))

	l.setFont("", 8)
	l.textRight(l.pageWidth-leftMargin, 10, "Document Date: "+d.ConsentDate)
	l.textRight(l.pageWidth-leftMargin, 16, v.Clinic.Address)

	l.setTextGray(0)
	l.y = headerHeight + 6
	b.Lines = 4
}

func (l *layout) patient(d form.Draft) {
	l.sectionHeader("Patient Information")
	b := l.begin(BlockPatient, "Patient Information")

	l.labelValue("Patient Name: ", d.FullName())
	l.labelValue("Date of Birth: ", d.DateOfBirth)
	l.labelValue("Email: ", d.Email)
	l.labelValue("Phone: ", d.Phone)
	l.labelValue("Consent Date: ", d.ConsentDate)
	b.Lines = 5
}

func (l *layout) section(sec variant.Section) {
	l.sectionHeader(sec.Title)
	b := l.begin(BlockSection, sec.Title)

	lines := 0
	if sec.Intro != "" {
		lines += l.text(sec.Intro, 8.5, "")
	}
	for _, p := range sec.Paragraphs {
		if p.Heading != "" {
			lines += l.text(p.Heading, 9, "B")
		}
		lines += l.text(p.Text, 8.5, "")
	}
	for _, item := range sec.Bullets {
		lines += l.bullet(item)
	}
	b.Lines = lines
}

func (l *layout) screening(v *variant.Config, d form.Draft) {
	l.sectionHeader("Health Screening Responses")
	b := l.begin(BlockScreening, "Health Screening Responses")

	lines := 0
	for i, q := range v.Screening {
		answer := "NOT ANSWERED"
		if a := d.Answers[q.ID]; a != "" {
			answer = strings.ToUpper(a)
		}
		if details := d.Details[q.ID]; details != "" && d.Answers[q.ID] == variant.AnswerYes {
			answer += " — " + details
		}

		l.labelValue(fmt.Sprintf("%d. %s: ", i+1, q.Label), answer)
		lines++
	}
	b.Lines = lines

	if yes := v.YesLabels(d.Answers); len(yes) > 0 {
		c := l.begin(BlockCallout, "ATTENTION: Patient answered YES to:")
		c.Lines = l.callout(c.Title, strings.Join(yes, ", "))
	}
}

func (l *layout) acknowledgments(v *variant.Config, d form.Draft) {
	l.sectionHeader("Patient Acknowledgments & Agreement")
	b := l.begin(BlockAcknowledgments, "Patient Acknowledgments & Agreement")

	lines := l.text("By signing below, the patient affirms that each of the following statements has been read, understood, and individually acknowledged:", 8.5, "")
	l.y += 2

	initials := d.Initials()
	for i, text := range v.Acknowledgments {
		checked := i < len(d.Acknowledgments) && d.Acknowledgments[i]
		lines += l.checkbox(text, initials, checked)
	}
	b.Lines = lines
}

func (l *layout) consent(v *variant.Config) {
	l.sectionHeader("Consent")
	b := l.begin(BlockConsent, "Consent")
	b.Lines = l.text(v.ConsentStatement, 8.5, "")
}

// signature writes the caption and, when the image decodes as PNG, the
// image itself. It reports whether the image was embedded.
func (l *layout) signature(d form.Draft, img []byte) bool {
	readable := len(img) > 0
	if readable {
		if _, format, err := image.DecodeConfig(bytes.NewReader(img)); err != nil || format != "png" {
			log.WithField("prefix", "document").WithError(err).Warn("signature image is not a readable png, omitted")
			readable = false
		}
	}

	// header, both captions and the image stay on one page
	needed := sectionHeaderHeight + 2*captionHeight
	if readable {
		needed += signatureHeight + 3
	}
	l.checkPageBreak(needed)

	l.sectionHeader("Patient Signature")
	b := l.begin(BlockSignature, "Patient Signature")

	l.labelValue("Signed by: ", d.FullName())
	l.labelValue("Date: ", d.ConsentDate)
	b.Lines = 2

	if !readable {
		return false
	}

	l.pdf.RegisterImageOptionsReader(signatureImageName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(img))
	if !l.pdf.Ok() {
		log.WithField("prefix", "document").WithError(l.pdf.Error()).Warn("fail to embed signature image")
		l.pdf.ClearError()
		return false
	}

	l.pdf.ImageOptions(signatureImageName, leftMargin, l.y, signatureWidth, signatureHeight, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	l.y += signatureHeight + 3
	b.Lines++

	return true
}

func (l *layout) footer(v *variant.Config) {
	l.setFont("", 7)
	l.setTextGray(130)

	l.textRight(l.pageWidth-leftMargin, l.pageHeight-4, fmt.Sprintf("Page %d of {nb}", l.pdf.PageNo()))
	l.textCenter(l.pageHeight-8, fmt.Sprintf("%s | %s | %s", v.Clinic.DisplayName, v.Clinic.Address, v.Clinic.Phone))
	l.textCenter(l.pageHeight-4, "CONFIDENTIAL — "+v.ShortTitle)

	l.setTextGray(0)
}
