package schema

import (
	"fmt"
	"strings"
	"time"
)

const (
	ConsentRecordsCollection = "consents"
)

// ConsentType identifies one of the consent variants
type ConsentType string

const (
	ConsentBloodDraw   ConsentType = "blood-draw"
	ConsentHRT         ConsentType = "hrt"
	ConsentPeptide     ConsentType = "peptide"
	ConsentWeightLoss  ConsentType = "weight-loss"
	ConsentRedLight    ConsentType = "red-light"
	ConsentUnsupported ConsentType = ""
)

var ErrUnknownConsentType = fmt.Errorf("unknown consent type")

// ConsentTypes lists every supported variant in a stable order
var ConsentTypes = []ConsentType{
	ConsentBloodDraw,
	ConsentHRT,
	ConsentPeptide,
	ConsentWeightLoss,
	ConsentRedLight,
}

// ParseConsentType validates a raw consent type
func ParseConsentType(s string) (ConsentType, error) {
	for _, t := range ConsentTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return ConsentUnsupported, ErrUnknownConsentType
}

// ConsentRecord is the durable row written once per successful submission.
type ConsentRecord struct {
	ID               string            `json:"id,omitempty" bson:"_id,omitempty"`
	PatientID        string            `json:"patient_id,omitempty" bson:"patient_id,omitempty"`
	ConsentType      ConsentType       `json:"consent_type" bson:"consent_type"`
	FirstName        string            `json:"first_name" bson:"first_name"`
	LastName         string            `json:"last_name" bson:"last_name"`
	Email            string            `json:"email" bson:"email"`
	Phone            string            `json:"phone" bson:"phone"`
	DateOfBirth      string            `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	GHLContactID     string            `json:"ghl_contact_id,omitempty" bson:"ghl_contact_id,omitempty"`
	ConsentDate      string            `json:"consent_date" bson:"consent_date"`
	ConsentGiven     bool              `json:"consent_given" bson:"consent_given"`
	SignatureURL     string            `json:"signature_url" bson:"signature_url"`
	PDFURL           string            `json:"pdf_url" bson:"pdf_url"`
	HealthScreening  map[string]string `json:"health_screening,omitempty" bson:"health_screening,omitempty"`
	ScreeningDetails map[string]string `json:"screening_details,omitempty" bson:"screening_details,omitempty"`
	SubmittedAt      time.Time         `json:"submitted_at" bson:"submitted_at"`
}

// ConsentRequest is the body accepted by the consent-forms endpoint
type ConsentRequest struct {
	ConsentType      ConsentType       `json:"consentType"`
	FirstName        string            `json:"firstName"`
	LastName         string            `json:"lastName"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	DateOfBirth      string            `json:"dateOfBirth"`
	GHLContactID     string            `json:"ghlContactId,omitempty"`
	ConsentDate      string            `json:"consentDate"`
	ConsentGiven     bool              `json:"consentGiven"`
	SignatureURL     string            `json:"signatureUrl"`
	PDFURL           string            `json:"pdfUrl"`
	HealthScreening  map[string]string `json:"healthScreening,omitempty"`
	ScreeningDetails map[string]string `json:"screeningDetails,omitempty"`
}

// Record turns the request into the row to insert
func (r ConsentRequest) Record(patientID string, submittedAt time.Time) ConsentRecord {
	return ConsentRecord{
		PatientID:        patientID,
		ConsentType:      r.ConsentType,
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Email:            strings.ToLower(strings.TrimSpace(r.Email)),
		Phone:            r.Phone,
		DateOfBirth:      r.DateOfBirth,
		GHLContactID:     r.GHLContactID,
		ConsentDate:      r.ConsentDate,
		ConsentGiven:     r.ConsentGiven,
		SignatureURL:     r.SignatureURL,
		PDFURL:           r.PDFURL,
		HealthScreening:  r.HealthScreening,
		ScreeningDetails: r.ScreeningDetails,
		SubmittedAt:      submittedAt,
	}
}

type ConsentResponse struct {
	Success     bool        `json:"success"`
	ConsentID   string      `json:"consentId,omitempty"`
	PatientID   *string     `json:"patientId"`
	ConsentType ConsentType `json:"consentType,omitempty"`
	Error       string      `json:"error,omitempty"`
}
