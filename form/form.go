// Package form holds the draft answers of a consent form and decides
// whether the draft is ready to be submitted.
package form

import (
	"fmt"
	"strings"
	"time"

	"github.com/bitmark-inc/consent-api/utils"
	"github.com/bitmark-inc/consent-api/variant"
)

// Field names a validatable item of the form
type Field string

const (
	FieldFirstName       Field = "firstName"
	FieldLastName        Field = "lastName"
	FieldEmail           Field = "email"
	FieldPhone           Field = "phone"
	FieldDateOfBirth     Field = "dateOfBirth"
	FieldConsentDate     Field = "consentDate"
	FieldConsentGiven    Field = "consentGiven"
	FieldSignature       Field = "signature"
	FieldAcknowledgments Field = "acknowledgments"

	screeningPrefix = "screening."
)

var (
	ErrUnknownField    = fmt.Errorf("unknown form field")
	ErrUnknownQuestion = fmt.Errorf("unknown screening question")
	ErrUnknownAck      = fmt.Errorf("unknown acknowledgment")
)

// identityFields lists the text fields in the order they appear on the form
var identityFields = []Field{
	FieldFirstName,
	FieldLastName,
	FieldEmail,
	FieldPhone,
	FieldDateOfBirth,
	FieldConsentDate,
}

var fieldMessageIDs = map[Field]string{
	FieldFirstName:       "field_first_name",
	FieldLastName:        "field_last_name",
	FieldEmail:           "field_email",
	FieldPhone:           "field_phone",
	FieldDateOfBirth:     "field_date_of_birth",
	FieldConsentDate:     "field_consent_date",
	FieldConsentGiven:    "field_consent_checkbox",
	FieldSignature:       "field_signature",
	FieldAcknowledgments: "field_acknowledgments",
}

// ScreeningField returns the field of a screening question
func ScreeningField(questionID string) Field {
	return Field(screeningPrefix + questionID)
}

// Draft is the mutable set of answers of one form session
type Draft struct {
	FirstName       string            `json:"firstName"`
	LastName        string            `json:"lastName"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone"`
	DateOfBirth     string            `json:"dateOfBirth"`
	ConsentDate     string            `json:"consentDate"`
	Answers         map[string]string `json:"answers,omitempty"`
	Details         map[string]string `json:"details,omitempty"`
	Acknowledgments []bool            `json:"acknowledgments,omitempty"`
	ConsentGiven    bool              `json:"consentGiven"`
	GHLContactID    string            `json:"ghlContactId,omitempty"`
}

func (d *Draft) value(f Field) string {
	switch f {
	case FieldFirstName:
		return d.FirstName
	case FieldLastName:
		return d.LastName
	case FieldEmail:
		return d.Email
	case FieldPhone:
		return d.Phone
	case FieldDateOfBirth:
		return d.DateOfBirth
	case FieldConsentDate:
		return d.ConsentDate
	}
	return ""
}

// FullName joins first and last name
func (d Draft) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// Initials returns the upper-cased initials of the patient
func (d Draft) Initials() string {
	var b strings.Builder
	for _, s := range []string{d.FirstName, d.LastName} {
		s = strings.TrimSpace(s)
		if s != "" {
			b.WriteString(strings.ToUpper(string([]rune(s)[0])))
		}
	}
	return b.String()
}

func (d Draft) clone() Draft {
	c := d
	c.Answers = make(map[string]string, len(d.Answers))
	for k, v := range d.Answers {
		c.Answers[k] = v
	}
	c.Details = make(map[string]string, len(d.Details))
	for k, v := range d.Details {
		c.Details[k] = v
	}
	c.Acknowledgments = append([]bool(nil), d.Acknowledgments...)
	return c
}

// Model owns a draft and the per-field validation markers of a session
type Model struct {
	variant  *variant.Config
	lang     string
	now      func() time.Time
	required map[Field]struct{}

	draft  Draft
	marked map[Field]string
}

// NewModel creates an empty form for a variant. The consent date is
// preset to today as the hosted forms do.
func NewModel(v *variant.Config, lang string) (*Model, error) {
	required := map[Field]struct{}{}
	for _, name := range v.RequiredFields {
		f := Field(name)
		if _, ok := fieldMessageIDs[f]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		required[f] = struct{}{}
	}

	m := &Model{
		variant:  v,
		lang:     lang,
		now:      time.Now,
		required: required,
		marked:   map[Field]string{},
		draft: Draft{
			Answers:         map[string]string{},
			Details:         map[string]string{},
			Acknowledgments: make([]bool, len(v.Acknowledgments)),
		},
	}
	m.draft.ConsentDate = m.now().Format("2006-01-02")

	return m, nil
}

// Load replaces the draft with d, sanitizing every free-text value. An
// empty consent date keeps the preset one.
func (m *Model) Load(d Draft) error {
	for _, f := range identityFields {
		if f == FieldConsentDate && d.ConsentDate == "" {
			continue
		}
		if err := m.SetField(f, d.value(f)); err != nil {
			return err
		}
	}

	for id, a := range d.Answers {
		if err := m.SetAnswer(id, a); err != nil {
			return err
		}
	}

	for id, text := range d.Details {
		if err := m.SetDetails(id, text); err != nil {
			return err
		}
	}

	for i, checked := range d.Acknowledgments {
		if err := m.SetAcknowledgment(i, checked); err != nil {
			return err
		}
	}

	m.SetConsent(d.ConsentGiven)
	m.draft.GHLContactID = Sanitize(d.GHLContactID)

	return nil
}

func (m *Model) Variant() *variant.Config {
	return m.variant
}

// SetField updates an identity field and clears its marker
func (m *Model) SetField(f Field, value string) error {
	value = Sanitize(value)

	switch f {
	case FieldFirstName:
		m.draft.FirstName = value
	case FieldLastName:
		m.draft.LastName = value
	case FieldEmail:
		m.draft.Email = value
	case FieldPhone:
		m.draft.Phone = value
	case FieldDateOfBirth:
		m.draft.DateOfBirth = FormatDateOfBirth(value)
	case FieldConsentDate:
		m.draft.ConsentDate = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}

	delete(m.marked, f)
	return nil
}

// SetAnswer records a screening answer and clears its marker
func (m *Model) SetAnswer(questionID, answer string) error {
	if _, ok := m.variant.Question(questionID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}

	m.draft.Answers[questionID] = strings.ToLower(strings.TrimSpace(answer))
	delete(m.marked, ScreeningField(questionID))
	return nil
}

// SetDetails records the free-text details of a screening answer
func (m *Model) SetDetails(questionID, text string) error {
	if _, ok := m.variant.Question(questionID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}

	m.draft.Details[questionID] = Sanitize(text)
	return nil
}

func (m *Model) SetAcknowledgment(i int, checked bool) error {
	if i < 0 || i >= len(m.draft.Acknowledgments) {
		return fmt.Errorf("%w: %d", ErrUnknownAck, i)
	}

	m.draft.Acknowledgments[i] = checked
	delete(m.marked, FieldAcknowledgments)
	return nil
}

func (m *Model) SetConsent(given bool) {
	m.draft.ConsentGiven = given
	delete(m.marked, FieldConsentGiven)
}

// SignatureChanged clears the signature marker after the user draws
func (m *Model) SignatureChanged() {
	delete(m.marked, FieldSignature)
}

// Marked reports whether a field currently shows an error marker
func (m *Model) Marked(f Field) bool {
	_, ok := m.marked[f]
	return ok
}

// Snapshot returns a frozen copy of the draft
func (m *Model) Snapshot() Draft {
	return m.draft.clone()
}

func (m *Model) label(f Field) string {
	return utils.Localize(m.lang, fieldMessageIDs[f], nil)
}
