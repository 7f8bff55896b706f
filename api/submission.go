package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/bitmark-inc/consent-api/form"
	"github.com/bitmark-inc/consent-api/pipeline"
	"github.com/bitmark-inc/consent-api/signature"
)

const defaultPadWidth = 500

type signatureParams struct {
	Width   float64            `json:"width"`
	Scale   float64            `json:"scale"`
	Strokes []signature.Stroke `json:"strokes"`
}

type submissionParams struct {
	Lang      string          `json:"lang"`
	Draft     form.Draft      `json:"draft"`
	Signature signatureParams `json:"signature"`
}

// submitConsent runs the whole pipeline for one form session
func (s *Server) submitConsent(c *gin.Context) {
	v, ok := s.variantParam(c)
	if !ok {
		return
	}

	var params submissionParams
	if err := c.ShouldBindJSON(&params); err != nil {
		abortWithEncoding(c, http.StatusBadRequest, errorCannotParseRequest, err)
		return
	}

	lang := params.Lang
	if lang == "" {
		lang = c.GetHeader("Accept-Language")
	}

	model, err := form.NewModel(v, lang)
	if err != nil {
		abortWithEncoding(c, http.StatusInternalServerError, errorInternalServer, err)
		return
	}

	if err := model.Load(params.Draft); err != nil {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters, err)
		return
	}

	width := params.Signature.Width
	if width <= 0 {
		width = defaultPadWidth
	}

	opts := []signature.Option{}
	if params.Signature.Scale > 0 {
		opts = append(opts, signature.WithScale(params.Signature.Scale))
	}

	pad, err := signature.NewPadFromStrokes(width, params.Signature.Strokes, opts...)
	if err != nil {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidSignature, err)
		return
	}

	controller := pipeline.New(model, pad, s.pipelineDeps,
		pipeline.WithLanguage(lang),
		pipeline.WithOrphanPolicy(s.orphanPolicy),
	)

	outcome, err := controller.Submit(c.Request.Context())
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"result":  outcome,
		})
		return
	}

	if errors.Is(err, pipeline.ErrInvalidDraft) {
		log.WithField("submission_id", outcome.SubmissionID).Debug("submission blocked by validation")
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"code":    errorInvalidForm.Code,
			"error":   outcome.Validation.Title(lang),
			"result":  outcome,
		})
		return
	}

	if errors.Is(err, pipeline.ErrNotReady) {
		abortWithEncoding(c, http.StatusServiceUnavailable, errorServiceNotReady, err)
		return
	}

	var se *pipeline.StageError
	if errors.As(err, &se) && outcome != nil {
		log.WithField("submission_id", outcome.SubmissionID).WithError(err).Error("submission failed")
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"success": false,
			"code":    errorSubmissionFailed.Code,
			"error":   se.Error(),
			"result":  outcome,
		})
		return
	}

	abortWithEncoding(c, http.StatusInternalServerError, errorInternalServer, err)
}
