package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bitmark-inc/consent-api/schema"
)

var errCRMNotConfigured = fmt.Errorf("crm is not configured")

func (s *Server) syncConsentToCRM(c *gin.Context) {
	var p schema.SyncPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		abortWithEncoding(c, http.StatusBadRequest, errorCannotParseRequest, err)
		return
	}

	if strings.TrimSpace(p.Email) == "" || strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		abortWithEncoding(c, http.StatusBadRequest, errorMissingSyncFields)
		return
	}

	if s.syncer == nil {
		abortWithEncoding(c, http.StatusServiceUnavailable, errorCRMNotConfigured)
		return
	}

	resp, err := s.syncer.Sync(c.Request.Context(), p)
	if err != nil {
		abortWithEncoding(c, http.StatusBadGateway, errorCRMRequestFailed, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SyncConsent relays a consent-completion event in process
func (s *Server) SyncConsent(ctx context.Context, p schema.SyncPayload) (*schema.SyncResponse, error) {
	if s.syncer == nil {
		return nil, errCRMNotConfigured
	}
	return s.syncer.Sync(ctx, p)
}
