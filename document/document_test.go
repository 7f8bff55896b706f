package document

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/consent-api/form"
	"github.com/bitmark-inc/consent-api/schema"
	"github.com/bitmark-inc/consent-api/signature"
	"github.com/bitmark-inc/consent-api/variant"
)

var testTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func loadVariant(t *testing.T, ct schema.ConsentType) *variant.Config {
	reg, err := variant.Default()
	require.NoError(t, err)

	v, err := reg.Get(ct)
	require.NoError(t, err)
	return v
}

func signaturePNG(t *testing.T) []byte {
	p, err := signature.NewPad(300)
	require.NoError(t, err)
	require.NoError(t, p.BeginStroke(10, 100))
	require.NoError(t, p.AddPoint(80, 40))
	require.NoError(t, p.AddPoint(200, 90))
	require.NoError(t, p.EndStroke())

	b, err := p.ToImage()
	require.NoError(t, err)
	return b
}

func redLightSnapshot(t *testing.T, answers map[string]string) Snapshot {
	return Snapshot{
		Variant: loadVariant(t, schema.ConsentRedLight),
		Draft: form.Draft{
			FirstName:    "Jane",
			LastName:     "Doe",
			Email:        "jane@example.com",
			Phone:        "(949) 555-0100",
			DateOfBirth:  "01/02/1990",
			ConsentDate:  "2024-03-01",
			Answers:      answers,
			ConsentGiven: true,
		},
		Signature: signaturePNG(t),
		CreatedAt: testTime,
	}
}

func kinds(outline []Block) []BlockKind {
	k := make([]BlockKind, 0, len(outline))
	for _, b := range outline {
		k = append(k, b.Kind)
	}
	return k
}

func TestRenderIsDeterministic(t *testing.T) {
	s := redLightSnapshot(t, map[string]string{"q1": "yes", "q2": "na"})
	r := NewRenderer()

	first, err := r.Render(s)
	require.NoError(t, err)
	second, err := r.Render(s)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Outline, second.Outline); diff != "" {
		t.Errorf("outline mismatch (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.Pages, second.Pages)
	assert.True(t, bytes.Equal(first.Bytes, second.Bytes))
	assert.True(t, bytes.HasPrefix(first.Bytes, []byte("%PDF-")))
}

func TestRenderSectionOrder(t *testing.T) {
	doc, err := NewRenderer().Render(redLightSnapshot(t, map[string]string{"q3": "yes"}))
	require.NoError(t, err)

	expected := []BlockKind{
		BlockHeader,
		BlockPatient,
		BlockSection,
		BlockSection,
		BlockScreening,
		BlockCallout,
		BlockConsent,
		BlockSignature,
	}
	if diff := cmp.Diff(expected, kinds(doc.Outline)); diff != "" {
		t.Errorf("unexpected block order (-want +got):\n%s", diff)
	}
	assert.True(t, doc.SignatureEmbedded)

	for i := 1; i < len(doc.Outline); i++ {
		assert.GreaterOrEqual(t, doc.Outline[i].Page, doc.Outline[i-1].Page)
	}
}

func TestRenderWithoutYesAnswersHasNoCallout(t *testing.T) {
	doc, err := NewRenderer().Render(redLightSnapshot(t, map[string]string{"q1": "no"}))
	require.NoError(t, err)
	assert.NotContains(t, kinds(doc.Outline), BlockCallout)
}

func TestRenderMalformedSignature(t *testing.T) {
	s := redLightSnapshot(t, nil)
	s.Signature = []byte("data:image/png;base64,not-really")

	doc, err := NewRenderer().Render(s)
	require.NoError(t, err)
	assert.False(t, doc.SignatureEmbedded)
	assert.Contains(t, kinds(doc.Outline), BlockSignature)

	s.Signature = nil
	doc, err = NewRenderer().Render(s)
	require.NoError(t, err)
	assert.False(t, doc.SignatureEmbedded)
}

func TestRenderText(t *testing.T) {
	doc, err := NewRenderer(WithCompression(false)).Render(redLightSnapshot(t, map[string]string{"q1": "yes"}))
	require.NoError(t, err)

	content := string(doc.Bytes)
	assert.Contains(t, content, "(RANGE MEDICAL)")
	assert.Contains(t, content, "Page 1 of ")
	assert.Contains(t, content, "CONFIDENTIAL")
	assert.Contains(t, content, "(YES)")
	assert.Contains(t, content, "(NOT ANSWERED)")
	assert.Contains(t, content, "ATTENTION: Patient answered YES to:")
	assert.Contains(t, content, "Recent Botox/face injections")
}

func TestRenderAcknowledgmentsCarryInitials(t *testing.T) {
	v := loadVariant(t, schema.ConsentBloodDraw)
	acks := make([]bool, len(v.Acknowledgments))
	for i := range acks {
		acks[i] = true
	}

	doc, err := NewRenderer(WithCompression(false)).Render(Snapshot{
		Variant: v,
		Draft: form.Draft{
			FirstName:       "jane",
			LastName:        "doe",
			ConsentDate:     "2024-03-01",
			Acknowledgments: acks,
		},
		CreatedAt: testTime,
	})
	require.NoError(t, err)

	assert.Contains(t, kinds(doc.Outline), BlockAcknowledgments)
	assert.Contains(t, string(doc.Bytes), "(JD)")
}

func TestRenderPaginatesLongText(t *testing.T) {
	v := *loadVariant(t, schema.ConsentHRT)

	long := variant.Section{Title: "Terms"}
	for i := 0; i < 60; i++ {
		long.Paragraphs = append(long.Paragraphs, variant.Paragraph{Text: strings.Repeat("lorem ipsum dolor sit amet ", 20)})
	}
	v.Sections = append(append([]variant.Section{}, v.Sections...), long)

	doc, err := NewRenderer(WithCompression(false)).Render(Snapshot{
		Variant:   &v,
		Draft:     form.Draft{FirstName: "Jane", LastName: "Doe", ConsentDate: "2024-03-01"},
		CreatedAt: testTime,
	})
	require.NoError(t, err)

	assert.Greater(t, doc.Pages, 1)
	assert.Contains(t, string(doc.Bytes), "Page 2 of ")

	last := doc.Outline[len(doc.Outline)-1]
	assert.Equal(t, BlockSignature, last.Kind)
	assert.Greater(t, last.Page, 1)
}

func TestRenderRequiresVariant(t *testing.T) {
	_, err := NewRenderer().Render(Snapshot{})
	assert.ErrorIs(t, err, ErrNoVariant)
}
