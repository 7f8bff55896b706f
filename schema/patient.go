package schema

import "strings"

const (
	PatientsCollection = "patients"
)

type Patient struct {
	ID           string `json:"id" bson:"_id,omitempty"`
	FirstName    string `json:"first_name" bson:"first_name"`
	LastName     string `json:"last_name" bson:"last_name"`
	Email        string `json:"email" bson:"email"`
	Phone        string `json:"phone" bson:"phone"`
	PhoneDigits  string `json:"-" bson:"phone_digits"`
	GHLContactID string `json:"ghl_contact_id,omitempty" bson:"ghl_contact_id,omitempty"`
}

// PhoneDigits keeps the last ten digits of a phone number, the part used
// to match patients regardless of formatting
func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	d := b.String()
	if len(d) > 10 {
		d = d[len(d)-10:]
	}
	return d
}
