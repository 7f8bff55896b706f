package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bitmark-inc/consent-api/schema"
)

type ConsentTestSuite struct {
	suite.Suite
	connURI      string
	testDBName   string
	mongoClient  *mongo.Client
	testDatabase *mongo.Database
}

func NewConsentTestSuite(connURI, dbName string) *ConsentTestSuite {
	return &ConsentTestSuite{
		connURI:    connURI,
		testDBName: dbName,
	}
}

func (s *ConsentTestSuite) SetupSuite() {
	if s.connURI == "" || s.testDBName == "" {
		s.T().Fatal("invalid test suite configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(s.connURI))
	if nil != err {
		s.T().Fatalf("connect mongo database with error: %s", err)
	}

	s.mongoClient = mongoClient
	s.testDatabase = mongoClient.Database(s.testDBName)

	// make sure the test suite is run with a clean environment
	if err := s.CleanMongoDB(); err != nil {
		s.T().Fatal(err)
	}

	s.Require().NoError(schema.NewMongoDBIndexer(s.connURI, s.testDBName).IndexAll())
}

func (s *ConsentTestSuite) TearDownSuite() {
	s.NoError(s.CleanMongoDB())
	s.NoError(s.mongoClient.Disconnect(context.Background()))
}

func (s *ConsentTestSuite) CleanMongoDB() error {
	return s.testDatabase.Drop(context.Background())
}

func (s *ConsentTestSuite) TestCreateConsent() {
	store := NewMongoStore(s.mongoClient, s.testDBName)
	s.NoError(store.Ping())

	submittedAt := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	id, err := store.CreateConsent(schema.ConsentRecord{
		ConsentType:     schema.ConsentRedLight,
		FirstName:       "Jane",
		LastName:        "Doe",
		Email:           "jane@example.com",
		ConsentDate:     "2024-03-01",
		ConsentGiven:    true,
		SignatureURL:    "https://blob/sig.png",
		PDFURL:          "https://blob/doc.pdf",
		HealthScreening: map[string]string{"q1": "no"},
		SubmittedAt:     submittedAt,
	})
	s.NoError(err)
	s.NotEmpty(id)

	oid, err := primitive.ObjectIDFromHex(id)
	s.Require().NoError(err)

	var r schema.ConsentRecord
	s.NoError(s.testDatabase.Collection(schema.ConsentRecordsCollection).
		FindOne(context.Background(), bson.M{"_id": oid}).Decode(&r))
	s.Equal(id, r.ID)
	s.Equal(schema.ConsentRedLight, r.ConsentType)
	s.True(r.ConsentGiven)
	s.Equal("no", r.HealthScreening["q1"])
	s.True(submittedAt.Equal(r.SubmittedAt))
}

func (s *ConsentTestSuite) TestMatchPatient() {
	store := NewMongoStore(s.mongoClient, s.testDBName)

	byContact, err := store.CreatePatient(schema.Patient{FirstName: "A", GHLContactID: "ghl-1", Email: "a@example.com"})
	s.NoError(err)
	byEmail, err := store.CreatePatient(schema.Patient{FirstName: "B", Email: "Bee@Example.com"})
	s.NoError(err)
	byPhone, err := store.CreatePatient(schema.Patient{FirstName: "C", Phone: "+1 (949) 555-0199"})
	s.NoError(err)

	id, err := store.MatchPatient("ghl-1", "bee@example.com", "")
	s.NoError(err)
	s.Equal(byContact, id)

	id, err = store.MatchPatient("", "BEE@example.COM", "")
	s.NoError(err)
	s.Equal(byEmail, id)

	id, err = store.MatchPatient("unknown", "nobody@example.com", "949.555.0199")
	s.NoError(err)
	s.Equal(byPhone, id)

	_, err = store.MatchPatient("", "b.e@example.com", "555")
	s.ErrorIs(err, ErrPatientNotFound)
}

func TestConsentTestSuite(t *testing.T) {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("test")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	connURI := viper.GetString("mongo.uri")
	if connURI == "" {
		t.Skip("TEST_MONGO_URI is not set")
	}

	suite.Run(t, NewConsentTestSuite(connURI, "test-consent-db"))
}
