package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/bitmark-inc/consent-api/schema"
	"github.com/bitmark-inc/consent-api/variant"
)

type fakeSignature bool

func (s fakeSignature) IsEmpty() bool { return !bool(s) }

const (
	signed   = fakeSignature(true)
	unsigned = fakeSignature(false)
)

type FormTestSuite struct {
	suite.Suite
	registry *variant.Registry
}

func (s *FormTestSuite) SetupSuite() {
	r, err := variant.Default()
	s.Require().NoError(err)
	s.registry = r
}

func (s *FormTestSuite) newModel(t schema.ConsentType) *Model {
	v, err := s.registry.Get(t)
	s.Require().NoError(err)

	m, err := NewModel(v, "en")
	s.Require().NoError(err)
	m.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }
	m.draft.ConsentDate = "2026-10-15"
	return m
}

func (s *FormTestSuite) fillIdentity(m *Model) {
	s.NoError(m.SetField(FieldFirstName, "Jane"))
	s.NoError(m.SetField(FieldLastName, "Doe"))
	s.NoError(m.SetField(FieldEmail, "jane@example.com"))
	s.NoError(m.SetField(FieldPhone, "949-555-0100"))
	s.NoError(m.SetField(FieldDateOfBirth, "04/12/1985"))
}

func (s *FormTestSuite) TestValidWeightLossDraft() {
	m := s.newModel(schema.ConsentWeightLoss)
	s.fillIdentity(m)
	m.SetConsent(true)

	r := m.Validate(signed)
	s.True(r.Valid)
	s.Empty(r.Errors)
	s.Empty(r.Summary)
}

func (s *FormTestSuite) TestConsentNotGiven() {
	m := s.newModel(schema.ConsentWeightLoss)
	s.fillIdentity(m)

	r := m.Validate(signed)
	s.False(r.Valid)
	s.Equal(map[Field]string{FieldConsentGiven: "Consent Checkbox"}, r.Errors)
	s.Equal([]string{"Consent Checkbox"}, r.Summary)
}

func (s *FormTestSuite) TestSignatureMissing() {
	m := s.newModel(schema.ConsentWeightLoss)
	s.fillIdentity(m)
	m.SetConsent(true)

	r := m.Validate(unsigned)
	s.False(r.Valid)
	s.Equal(map[Field]string{FieldSignature: "Signature"}, r.Errors)

	r = m.Validate(nil)
	s.Equal(map[Field]string{FieldSignature: "Signature"}, r.Errors)
}

func (s *FormTestSuite) TestEmptyDraftReportsExactlyTheMissingItems() {
	m := s.newModel(schema.ConsentRedLight)
	m.draft.ConsentDate = ""

	r := m.Validate(unsigned)
	s.False(r.Valid)
	s.Equal([]string{
		"First Name", "Last Name", "Email", "Phone", "Date of Birth", "Consent Date",
		"Recent Botox/face injections", "Pregnancy", "Light-sensitive medications",
		"Skin cancer or lesions", "Uncontrolled thyroid", "Lupus/light sensitivity",
		"Eyes/skin sensitive to light",
		"Consent Checkbox", "Signature",
	}, r.Summary)
	s.Len(r.Errors, len(r.Summary))
	s.Equal("Pregnancy", r.Errors[ScreeningField("q2")])
}

func (s *FormTestSuite) TestScreeningAnswerClosedSet() {
	m := s.newModel(schema.ConsentRedLight)
	s.fillIdentity(m)
	m.SetConsent(true)
	for _, q := range []string{"q1", "q3", "q4", "q5", "q6", "q7"} {
		s.NoError(m.SetAnswer(q, "no"))
	}
	s.NoError(m.SetAnswer("q2", "na"))

	s.True(m.Validate(signed).Valid)

	s.NoError(m.SetAnswer("q1", "na"))
	r := m.Validate(signed)
	s.Equal(map[Field]string{ScreeningField("q1"): "Recent Botox/face injections"}, r.Errors)

	s.ErrorIs(m.SetAnswer("q99", "yes"), ErrUnknownQuestion)
}

func (s *FormTestSuite) TestAcknowledgmentsRequired() {
	m := s.newModel(schema.ConsentBloodDraw)
	s.fillIdentity(m)
	m.SetConsent(true)
	for _, q := range []string{"bleedingDisorder", "bloodThinners", "allergiesLatex", "faintingHistory"} {
		s.NoError(m.SetAnswer(q, "No"))
	}

	r := m.Validate(signed)
	s.Equal(map[Field]string{FieldAcknowledgments: "All acknowledgment checkboxes"}, r.Errors)

	for i := range m.variant.Acknowledgments {
		s.NoError(m.SetAcknowledgment(i, true))
	}
	s.True(m.Validate(signed).Valid)
	s.ErrorIs(m.SetAcknowledgment(99, true), ErrUnknownAck)
}

func (s *FormTestSuite) TestMarkersClearPerField() {
	m := s.newModel(schema.ConsentHRT)

	m.Validate(unsigned)
	s.True(m.Marked(FieldFirstName))
	s.True(m.Marked(FieldLastName))
	s.True(m.Marked(FieldSignature))

	s.NoError(m.SetField(FieldFirstName, "Jane"))
	s.False(m.Marked(FieldFirstName))
	s.True(m.Marked(FieldLastName))

	m.SignatureChanged()
	s.False(m.Marked(FieldSignature))
	s.True(m.Marked(FieldConsentGiven))
}

func (s *FormTestSuite) TestSanitizedInput() {
	m := s.newModel(schema.ConsentHRT)
	s.NoError(m.SetField(FieldLastName, " <b>O'Brien</b> "))
	s.Equal("O'Brien", m.Snapshot().LastName)
	s.ErrorIs(m.SetField(Field("nickname"), "x"), ErrUnknownField)
}

func (s *FormTestSuite) TestSnapshotIsFrozen() {
	m := s.newModel(schema.ConsentRedLight)
	s.NoError(m.SetAnswer("q1", "yes"))

	snap := m.Snapshot()
	s.NoError(m.SetAnswer("q1", "no"))
	s.Equal("yes", snap.Answers["q1"])
}

func (s *FormTestSuite) TestLoad() {
	m := s.newModel(schema.ConsentPeptide)
	err := m.Load(Draft{
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        "jane@example.com",
		Phone:        "9495550100",
		DateOfBirth:  "04121985",
		Answers:      map[string]string{"allergies": "yes"},
		Details:      map[string]string{"allergies": "penicillin"},
		ConsentGiven: true,
		GHLContactID: "abc123",
	})
	s.NoError(err)

	d := m.Snapshot()
	s.Equal("04/12/1985", d.DateOfBirth)
	s.Equal("penicillin", d.Details["allergies"])
	s.Equal("abc123", d.GHLContactID)
	s.Equal("JD", d.Initials())

	s.ErrorIs(m.Load(Draft{Answers: map[string]string{"nope": "yes"}}), ErrUnknownQuestion)
}

func TestFormTestSuite(t *testing.T) {
	suite.Run(t, new(FormTestSuite))
}

func TestValidDateOfBirth(t *testing.T) {
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	cases := map[string]bool{
		"04/12/1985": true,
		"02/29/2024": true,
		"02/29/2023": false,
		"13/01/1990": false,
		"00/10/1990": false,
		"12/31/1899": false,
		"01/01/1900": true,
		"01/01/2026": true,
		"01/01/2027": false,
		"1/1/1990":   false,
		"":           false,
		"04-12-1985": false,
	}

	for in, expected := range cases {
		assert.Equal(t, expected, ValidDateOfBirth(in, now), in)
	}
}

func TestFormatDateOfBirth(t *testing.T) {
	assert.Equal(t, "04/12/1985", FormatDateOfBirth("04121985"))
	assert.Equal(t, "04/12/1985", FormatDateOfBirth("04/12/1985"))
	assert.Equal(t, "04/1", FormatDateOfBirth("041"))
	assert.Equal(t, "04/12/1985", FormatDateOfBirth("0412198512"))
	assert.Equal(t, "", FormatDateOfBirth("abc"))
}

func TestNewModelRejectsUnknownRequiredField(t *testing.T) {
	_, err := NewModel(&variant.Config{RequiredFields: []string{"middleName"}}, "en")
	require.ErrorIs(t, err, ErrUnknownField)
}
