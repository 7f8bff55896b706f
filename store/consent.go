package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bitmark-inc/consent-api/schema"
)

type Consent interface {
	CreateConsent(r schema.ConsentRecord) (string, error)
}

// CreateConsent inserts a consent record. Records are never updated.
func (m *mongoDB) CreateConsent(r schema.ConsentRecord) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	r.ID = ""
	c := m.client.Database(m.database)

	result, err := c.Collection(schema.ConsentRecordsCollection).InsertOne(ctx, &r)
	if err != nil {
		return "", err
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if ok {
		return id.Hex(), nil
	}
	return "", fmt.Errorf("incorrect inserted id")
}
