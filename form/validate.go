package form

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bitmark-inc/consent-api/utils"
)

var dateOfBirthPattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

const minBirthYear = 1900

// Emptier is satisfied by the signature surface
type Emptier interface {
	IsEmpty() bool
}

// Result is the outcome of a validation. Errors maps every failing field
// to its user facing label; Summary lists the same labels in form order.
type Result struct {
	Valid   bool             `json:"valid"`
	Errors  map[Field]string `json:"errors"`
	Summary []string         `json:"summary"`
}

// Title returns the heading shown above the summary list
func (r Result) Title(lang string) string {
	return utils.Localize(lang, "validation_summary_title", nil)
}

// Validate checks the draft and the signature. Every failing field is
// marked; fields that pass lose their marker.
func (m *Model) Validate(sig Emptier) Result {
	r := Result{Errors: map[Field]string{}, Summary: []string{}}

	fail := func(f Field, label string) {
		r.Errors[f] = label
		r.Summary = append(r.Summary, label)
	}

	for _, f := range identityFields {
		v := strings.TrimSpace(m.draft.value(f))
		_, required := m.required[f]

		switch {
		case f == FieldDateOfBirth && (required || v != ""):
			if !ValidDateOfBirth(v, m.now()) {
				fail(f, m.label(f))
			}
		case required && v == "":
			fail(f, m.label(f))
		}
	}

	for _, q := range m.variant.Screening {
		if !q.Accepts(m.draft.Answers[q.ID]) {
			fail(ScreeningField(q.ID), q.Label)
		}
	}

	for _, checked := range m.draft.Acknowledgments {
		if !checked {
			fail(FieldAcknowledgments, m.label(FieldAcknowledgments))
			break
		}
	}

	if !m.draft.ConsentGiven {
		fail(FieldConsentGiven, m.label(FieldConsentGiven))
	}

	if sig == nil || sig.IsEmpty() {
		fail(FieldSignature, m.label(FieldSignature))
	}

	r.Valid = len(r.Errors) == 0
	m.marked = make(map[Field]string, len(r.Errors))
	for f, label := range r.Errors {
		m.marked[f] = label
	}

	return r
}

// ValidDateOfBirth accepts MM/DD/YYYY dates that exist on the calendar
// with a year between 1900 and the current year
func ValidDateOfBirth(s string, now time.Time) bool {
	if !dateOfBirthPattern.MatchString(s) {
		return false
	}

	parts := strings.Split(s, "/")
	month, _ := strconv.Atoi(parts[0])
	day, _ := strconv.Atoi(parts[1])
	year, _ := strconv.Atoi(parts[2])

	if year < minBirthYear || year > now.Year() {
		return false
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return d.Year() == year && int(d.Month()) == month && d.Day() == day
}

// FormatDateOfBirth rewrites digit input as MM/DD/YYYY while typing
func FormatDateOfBirth(s string) string {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	v := digits.String()
	if len(v) >= 2 {
		v = v[:2] + "/" + v[2:]
	}
	if len(v) >= 5 {
		v = v[:5] + "/" + v[5:]
	}
	if len(v) > 10 {
		v = v[:10]
	}
	return v
}
