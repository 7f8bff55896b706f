package schema

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBIndexer creates the indexes required by the consent collections
type MongoDBIndexer struct {
	connURI  string
	database string
}

func NewMongoDBIndexer(connURI, database string) *MongoDBIndexer {
	return &MongoDBIndexer{
		connURI:  connURI,
		database: database,
	}
}

func (m *MongoDBIndexer) IndexAll() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.connURI))
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	db := client.Database(m.database)

	if err := m.IndexConsents(ctx, db); err != nil {
		return err
	}

	return m.IndexPatients(ctx, db)
}

func (m *MongoDBIndexer) IndexConsents(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ConsentRecordsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "consent_type", Value: 1}, {Key: "submitted_at", Value: -1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "patient_id", Value: 1}}},
	})
	if err != nil {
		log.WithField("prefix", "mongo").WithError(err).Error("fail to create consent indexes")
	}
	return err
}

func (m *MongoDBIndexer) IndexPatients(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(PatientsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ghl_contact_id", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "phone_digits", Value: 1}}},
	})
	if err != nil {
		log.WithField("prefix", "mongo").WithError(err).Error("fail to create patient indexes")
	}
	return err
}
