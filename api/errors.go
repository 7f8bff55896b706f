package api

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is a numbered api error
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var (
	errorInternalServer       = ErrorResponse{Code: 999, Message: "internal server error"}
	errorInvalidParameters    = ErrorResponse{Code: 1000, Message: "invalid parameters"}
	errorCannotParseRequest   = ErrorResponse{Code: 1001, Message: "cannot parse request"}
	errorServiceNotReady      = ErrorResponse{Code: 1002, Message: "service is not ready"}
	errorUnknownConsentType   = ErrorResponse{Code: 1100, Message: "unknown consent type"}
	errorMissingConsentFields = ErrorResponse{Code: 1101, Message: "Missing required fields: consentType, consentDate"}
	errorSaveConsent          = ErrorResponse{Code: 1102, Message: "Failed to save consent"}
	errorMissingSyncFields    = ErrorResponse{Code: 1200, Message: "Missing required fields: email, firstName, lastName"}
	errorCRMNotConfigured     = ErrorResponse{Code: 1201, Message: "crm is not configured"}
	errorCRMRequestFailed     = ErrorResponse{Code: 1202, Message: "Failed to create/update contact"}
	errorInvalidSignature     = ErrorResponse{Code: 1300, Message: "invalid signature strokes"}
	errorInvalidForm          = ErrorResponse{Code: 1301, Message: "form is not ready to submit"}
	errorSubmissionFailed     = ErrorResponse{Code: 1302, Message: "submission failed"}
)

// abortWithEncoding logs the errors and writes a {success:false} body
// carrying the numbered error
func abortWithEncoding(c *gin.Context, httpCode int, e ErrorResponse, errs ...error) {
	fields := log.WithField("code", e.Code).WithField("path", c.Request.URL.Path)
	for _, err := range errs {
		_ = c.Error(err)
		fields = fields.WithError(err)
	}

	if httpCode >= 500 {
		fields.Error(e.Message)
	} else {
		fields.Debug(e.Message)
	}

	c.AbortWithStatusJSON(httpCode, gin.H{
		"success": false,
		"code":    e.Code,
		"error":   e.Message,
	})
}
