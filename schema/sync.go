package schema

// CustomFieldComplete is the value written to a variant's CRM custom field
const CustomFieldComplete = "Complete"

// SyncPayload is the consent-completion event pushed to the CRM. It is
// built from a ConsentRecord and discarded after the call.
type SyncPayload struct {
	FirstName        string      `json:"firstName"`
	LastName         string      `json:"lastName"`
	Email            string      `json:"email"`
	Phone            string      `json:"phone"`
	DateOfBirth      string      `json:"dateOfBirth,omitempty"`
	ConsentType      ConsentType `json:"consentType"`
	ConsentDate      string      `json:"consentDate"`
	CustomFieldKey   string      `json:"customFieldKey"`
	CustomFieldValue string      `json:"customFieldValue"`
	Tags             []string    `json:"tags"`
	SignatureURL     string      `json:"signatureUrl"`
	PDFURL           string      `json:"pdfUrl"`
	YesAnswers       []string    `json:"yesAnswers,omitempty"`
}

// NewSyncPayload projects a consent record into a CRM event
func NewSyncPayload(r ConsentRecord, customFieldKey string, tags []string, yesAnswers []string) SyncPayload {
	t := make([]string, len(tags))
	copy(t, tags)

	return SyncPayload{
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Email:            r.Email,
		Phone:            r.Phone,
		DateOfBirth:      r.DateOfBirth,
		ConsentType:      r.ConsentType,
		ConsentDate:      r.ConsentDate,
		CustomFieldKey:   customFieldKey,
		CustomFieldValue: CustomFieldComplete,
		Tags:             t,
		SignatureURL:     r.SignatureURL,
		PDFURL:           r.PDFURL,
		YesAnswers:       yesAnswers,
	}
}

type SyncResponse struct {
	Success      bool   `json:"success"`
	ContactID    string `json:"contactId,omitempty"`
	IsNewContact bool   `json:"isNewContact"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
}
