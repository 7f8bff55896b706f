package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bitmark-inc/consent-api/schema"
	"github.com/bitmark-inc/consent-api/variant"
)

func (s *Server) listVariants(c *gin.Context) {
	if s.registry == nil {
		abortWithEncoding(c, http.StatusServiceUnavailable, errorServiceNotReady, variant.ErrRegistryNotReady)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": s.registry.Types(),
	})
}

func (s *Server) getVariant(c *gin.Context) {
	v, ok := s.variantParam(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": v,
	})
}

// variantParam resolves the :type path parameter, aborting when it is
// not a known variant
func (s *Server) variantParam(c *gin.Context) (*variant.Config, bool) {
	t, err := schema.ParseConsentType(c.Param("type"))
	if err != nil {
		abortWithEncoding(c, http.StatusNotFound, errorUnknownConsentType, err)
		return nil, false
	}

	v, err := s.registry.Get(t)
	switch err {
	case nil:
		return v, true
	case variant.ErrVariantNotFound:
		abortWithEncoding(c, http.StatusNotFound, errorUnknownConsentType, err)
	default:
		abortWithEncoding(c, http.StatusServiceUnavailable, errorServiceNotReady, err)
	}
	return nil, false
}
