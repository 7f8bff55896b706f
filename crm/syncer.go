// Package crm relays consent-completion events to the CRM contact of the
// patient.
package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bitmark-inc/consent-api/external/ghl"
	"github.com/bitmark-inc/consent-api/schema"
)

const (
	ContactSource = "Website Consent Form"
	noteTimeZone  = "America/Los_Angeles"
	noteRule      = "------------------------------"
)

var ErrMissingFields = fmt.Errorf("missing required fields: email, firstName, lastName")

//go:generate mockgen -destination=mocks/mock_crm.go -package=mocks github.com/bitmark-inc/consent-api/crm ContactService

// ContactService is the part of the crm api used by the syncer
type ContactService interface {
	SearchDuplicate(ctx context.Context, email string) (string, error)
	CreateContact(ctx context.Context, contact ghl.Contact) (string, error)
	UpdateContact(ctx context.Context, contactID string, contact ghl.Contact) (string, error)
	AddNote(ctx context.Context, contactID, body string) error
}

type Syncer struct {
	contacts ContactService
	now      func() time.Time
}

func NewSyncer(contacts ContactService) *Syncer {
	return &Syncer{
		contacts: contacts,
		now:      time.Now,
	}
}

// Sync updates or creates the contact of the patient and leaves a note
// with the document links. A failing note does not fail the sync.
func (s *Syncer) Sync(ctx context.Context, p schema.SyncPayload) (*schema.SyncResponse, error) {
	if strings.TrimSpace(p.Email) == "" || strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return nil, ErrMissingFields
	}

	contactID, err := s.contacts.SearchDuplicate(ctx, p.Email)
	if err != nil {
		return nil, err
	}
	isNew := contactID == ""

	contact := s.contact(p)
	if isNew {
		contactID, err = s.contacts.CreateContact(ctx, contact)
	} else {
		contactID, err = s.contacts.UpdateContact(ctx, contactID, contact)
	}
	if err != nil {
		return nil, err
	}

	if contactID != "" {
		if err := s.contacts.AddNote(ctx, contactID, NoteBody(p, s.now())); err != nil {
			log.WithField("prefix", "crm").WithField("contact_id", contactID).WithError(err).Warn("fail to add note, contact was updated")
		}
	}

	message := "Contact updated"
	if isNew {
		message = "Contact created"
	}

	return &schema.SyncResponse{
		Success:      true,
		ContactID:    contactID,
		IsNewContact: isNew,
		Message:      message,
	}, nil
}

func (s *Syncer) contact(p schema.SyncPayload) ghl.Contact {
	tags := p.Tags
	if len(tags) == 0 {
		tags = []string{string(p.ConsentType) + "-signed"}
	}

	c := ghl.Contact{
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        p.Email,
		Phone:        FormatPhone(p.Phone),
		Source:       ContactSource,
		Tags:         tags,
		CustomFields: []ghl.CustomField{},
		DateOfBirth:  p.DateOfBirth,
	}

	if p.CustomFieldKey != "" {
		value := p.CustomFieldValue
		if value == "" {
			value = schema.CustomFieldComplete
		}
		c.CustomFields = append(c.CustomFields, ghl.CustomField{Key: p.CustomFieldKey, FieldValue: value})
	}

	return c
}

// FormatPhone rewrites a US phone number as +1XXXXXXXXXX. Other inputs
// are reduced to their digits.
func FormatPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits
	}
	return digits
}

// DisplayConsentType turns "blood-draw" into "Blood Draw"
func DisplayConsentType(t schema.ConsentType) string {
	if t == "" {
		return "Consent"
	}

	s := strings.NewReplacer("-", " ", "_", " ").Replace(string(t))
	return cases.Title(language.English).String(s)
}

// NoteBody lists the patient and the signed documents
func NoteBody(p schema.SyncPayload, at time.Time) string {
	display := DisplayConsentType(p.ConsentType)
	phone := FormatPhone(p.Phone)

	var b strings.Builder
	fmt.Fprintf(&b, "%s FORM SIGNED\n%s\n\n", strings.ToUpper(display), noteRule)
	fmt.Fprintf(&b, "Patient: %s %s\n", p.FirstName, p.LastName)
	fmt.Fprintf(&b, "Email: %s\n", p.Email)
	if phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", phone)
	}
	if p.ConsentDate != "" {
		fmt.Fprintf(&b, "Consent Date: %s\n", p.ConsentDate)
	}
	b.WriteString("\n")

	if p.PDFURL != "" || p.SignatureURL != "" {
		fmt.Fprintf(&b, "DOCUMENTS:\n%s\n", noteRule)
		if p.PDFURL != "" {
			fmt.Fprintf(&b, "Signed %s PDF:\n%s\n\n", display, p.PDFURL)
		}
		if p.SignatureURL != "" {
			fmt.Fprintf(&b, "Signature:\n%s\n\n", p.SignatureURL)
		}
	}

	if len(p.YesAnswers) > 0 {
		fmt.Fprintf(&b, "Screening answered YES: %s\n\n", strings.Join(p.YesAnswers, ", "))
	}

	zone := "UTC"
	if loc, err := time.LoadLocation(noteTimeZone); err == nil {
		at = at.In(loc)
		zone = "PT"
	} else {
		at = at.UTC()
	}

	fmt.Fprintf(&b, "%s\nSubmitted: %s %s", noteRule, at.Format("1/2/2006, 3:04:05 PM"), zone)
	return b.String()
}
