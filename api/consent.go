package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bitmark-inc/consent-api/schema"
	"github.com/bitmark-inc/consent-api/store"
)

func (s *Server) createConsentForm(c *gin.Context) {
	var req schema.ConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithEncoding(c, http.StatusBadRequest, errorCannotParseRequest, err)
		return
	}

	if req.ConsentType == "" || strings.TrimSpace(req.ConsentDate) == "" {
		abortWithEncoding(c, http.StatusBadRequest, errorMissingConsentFields)
		return
	}

	if _, err := schema.ParseConsentType(string(req.ConsentType)); err != nil {
		abortWithEncoding(c, http.StatusBadRequest, errorUnknownConsentType, err)
		return
	}

	resp, err := s.saveConsent(req)
	if err != nil {
		abortWithEncoding(c, http.StatusInternalServerError, errorSaveConsent, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// saveConsent links the consent to a known patient when one matches and
// inserts the record
func (s *Server) saveConsent(req schema.ConsentRequest) (*schema.ConsentResponse, error) {
	var patientID *string

	id, err := s.mongoStore.MatchPatient(req.GHLContactID, req.Email, req.Phone)
	switch {
	case err == nil:
		patientID = &id
	case err == store.ErrPatientNotFound:
		log.WithField("consent_type", req.ConsentType).Info("no patient match found, saving consent without patient")
	default:
		log.WithError(err).Warn("fail to match patient")
	}

	record := req.Record("", s.now())
	if patientID != nil {
		record.PatientID = *patientID
	}

	consentID, err := s.mongoStore.CreateConsent(record)
	if err != nil {
		return nil, err
	}

	log.WithField("consent_id", consentID).WithField("consent_type", req.ConsentType).Info("consent saved")

	return &schema.ConsentResponse{
		Success:     true,
		ConsentID:   consentID,
		PatientID:   patientID,
		ConsentType: req.ConsentType,
	}, nil
}

// SaveConsent persists a consent record in process
func (s *Server) SaveConsent(ctx context.Context, req schema.ConsentRequest) (string, error) {
	resp, err := s.saveConsent(req)
	if err != nil {
		return "", err
	}
	return resp.ConsentID, nil
}
