package consentapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/consent-api/schema"
)

func TestSaveConsent(t *testing.T) {
	var received schema.ConsentRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, consentFormsPath, r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		_ = json.NewEncoder(w).Encode(schema.ConsentResponse{Success: true, ConsentID: "c1", ConsentType: received.ConsentType})
	}))
	defer ts.Close()

	id, err := New(ts.URL+"/").SaveConsent(context.Background(), schema.ConsentRequest{
		ConsentType:  schema.ConsentHRT,
		FirstName:    "Jane",
		ConsentDate:  "2024-03-01",
		ConsentGiven: true,
		SignatureURL: "https://blob/sig.png",
		PDFURL:       "https://blob/doc.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", id)
	assert.Equal(t, "https://blob/doc.pdf", received.PDFURL)
	assert.True(t, received.ConsentGiven)
}

func TestSaveConsentFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(schema.ConsentResponse{Success: false, Error: "Failed to save consent"})
	}))
	defer ts.Close()

	_, err := New(ts.URL).SaveConsent(context.Background(), schema.ConsentRequest{})
	assert.ErrorIs(t, err, ErrConsentNotSaved)
}

func TestSaveConsentSuccessFalse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(schema.ConsentResponse{Success: false})
	}))
	defer ts.Close()

	_, err := New(ts.URL).SaveConsent(context.Background(), schema.ConsentRequest{})
	assert.ErrorIs(t, err, ErrConsentNotSaved)
}

func TestSyncConsent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, consentSyncPath, r.URL.Path)

		var p schema.SyncPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, schema.CustomFieldComplete, p.CustomFieldValue)

		_ = json.NewEncoder(w).Encode(schema.SyncResponse{Success: true, ContactID: "ghl-1", IsNewContact: true})
	}))
	defer ts.Close()

	resp, err := New(ts.URL).SyncConsent(context.Background(), schema.SyncPayload{CustomFieldValue: schema.CustomFieldComplete})
	require.NoError(t, err)
	assert.Equal(t, "ghl-1", resp.ContactID)
	assert.True(t, resp.IsNewContact)
}

func TestSyncConsentTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	_, err := New(ts.URL).SyncConsent(context.Background(), schema.SyncPayload{})
	assert.Error(t, err)
}
