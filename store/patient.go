package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bitmark-inc/consent-api/schema"
)

var ErrPatientNotFound = fmt.Errorf("patient not found")

type Patient interface {
	CreatePatient(p schema.Patient) (string, error)
	MatchPatient(ghlContactID, email, phone string) (string, error)
}

func (m *mongoDB) CreatePatient(p schema.Patient) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	p.ID = ""
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.PhoneDigits = schema.PhoneDigits(p.Phone)

	c := m.client.Database(m.database)
	result, err := c.Collection(schema.PatientsCollection).InsertOne(ctx, &p)
	if err != nil {
		return "", err
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if ok {
		return id.Hex(), nil
	}
	return "", fmt.Errorf("incorrect inserted id")
}

// MatchPatient looks a patient up by crm contact id, then by email
// ignoring case, then by the last ten digits of the phone number
func (m *mongoDB) MatchPatient(ghlContactID, email, phone string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var filters []bson.M

	if ghlContactID = strings.TrimSpace(ghlContactID); ghlContactID != "" {
		filters = append(filters, bson.M{"ghl_contact_id": ghlContactID})
	}

	if email = strings.TrimSpace(email); email != "" {
		filters = append(filters, bson.M{"email": primitive.Regex{
			Pattern: "^" + regexp.QuoteMeta(email) + "$",
			Options: "i",
		}})
	}

	if digits := schema.PhoneDigits(phone); len(digits) == 10 {
		filters = append(filters, bson.M{"phone_digits": digits})
	}

	c := m.client.Database(m.database).Collection(schema.PatientsCollection)
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})

	for _, filter := range filters {
		var p schema.Patient
		err := c.FindOne(ctx, filter, opts).Decode(&p)
		if err == nil {
			log.WithField("prefix", "store").WithField("patient_id", p.ID).Debug("patient matched")
			return p.ID, nil
		}
		if err != mongo.ErrNoDocuments {
			return "", err
		}
	}

	return "", ErrPatientNotFound
}
