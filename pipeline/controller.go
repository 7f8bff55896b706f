// Package pipeline runs a consent submission through its fixed sequence
// of stages: validate, upload the signature, render and upload the
// document, persist the record and notify the crm.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/bitmark-inc/consent-api/document"
	"github.com/bitmark-inc/consent-api/form"
	"github.com/bitmark-inc/consent-api/schema"
	"github.com/bitmark-inc/consent-api/signature"
	"github.com/bitmark-inc/consent-api/storage"
	"github.com/bitmark-inc/consent-api/utils"
)

//go:generate mockgen -destination=mocks/mock_pipeline.go -package=mocks github.com/bitmark-inc/consent-api/pipeline ArtifactStore,ConsentRepository,RelationshipSync,Renderer

var (
	ErrSubmissionInFlight = fmt.Errorf("a submission is already running")
	ErrAlreadyComplete    = fmt.Errorf("the submission is already complete")
	ErrInvalidDraft       = fmt.Errorf("the form is not ready to submit")
	ErrNotReady           = fmt.Errorf("the pipeline is not ready")
)

type ArtifactStore interface {
	Upload(ctx context.Context, data []byte, contentType, path string) (string, error)
	Delete(ctx context.Context, addresses ...string) error
}

type ConsentRepository interface {
	SaveConsent(ctx context.Context, r schema.ConsentRequest) (string, error)
}

type RelationshipSync interface {
	SyncConsent(ctx context.Context, p schema.SyncPayload) (*schema.SyncResponse, error)
}

type Renderer interface {
	Render(s document.Snapshot) (*document.Document, error)
}

// OrphanPolicy decides what happens to uploaded artifacts when a later
// fatal stage fails
type OrphanPolicy int

const (
	OrphanKeep OrphanPolicy = iota
	OrphanDelete
)

// ParseOrphanPolicy accepts "keep" and "delete"
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch s {
	case "", "keep":
		return OrphanKeep, nil
	case "delete":
		return OrphanDelete, nil
	}
	return OrphanKeep, fmt.Errorf("unknown orphan policy %q", s)
}

// Status is one entry of the status trail shown to the user
type Status struct {
	Stage Stage     `json:"stage"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

// Observer is notified on every stage change
type Observer interface {
	StageChanged(submissionID string, status Status)
}

type ObserverFunc func(submissionID string, status Status)

func (f ObserverFunc) StageChanged(submissionID string, status Status) {
	f(submissionID, status)
}

// Artifacts holds the public addresses of the uploaded artifacts
type Artifacts struct {
	SignatureURL string `json:"signature_url"`
	DocumentURL  string `json:"document_url"`
}

// Outcome describes one submission attempt
type Outcome struct {
	SubmissionID string       `json:"submission_id"`
	State        State        `json:"state"`
	Validation   *form.Result `json:"validation,omitempty"`
	Artifacts    Artifacts    `json:"artifacts"`
	ConsentID    string       `json:"consent_id,omitempty"`
	Synced       bool         `json:"synced"`
	Trail        []Status     `json:"trail"`
	Confirmation string       `json:"confirmation,omitempty"`
}

type Deps struct {
	Store      ArtifactStore
	Repository ConsentRepository
	Sync       RelationshipSync
	Renderer   Renderer
	Readiness  *Readiness
}

type Option func(*Controller)

func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

func WithLanguage(lang string) Option {
	return func(c *Controller) { c.lang = lang }
}

func WithOrphanPolicy(p OrphanPolicy) Option {
	return func(c *Controller) { c.orphans = p }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

// Controller drives the submissions of one form session. Stages run on
// the caller's goroutine, one submission at a time.
type Controller struct {
	model *form.Model
	pad   *signature.Pad
	deps  Deps

	observers []Observer
	lang      string
	orphans   OrphanPolicy
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	state   State
	running bool
}

func New(model *form.Model, pad *signature.Pad, deps Deps, opts ...Option) *Controller {
	c := &Controller{
		model: model,
		pad:   pad,
		deps:  deps,
		lang:  "en",
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.deps.Readiness == nil {
		c.deps.Readiness = NewReadiness()
	}

	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SubmitEnabled is false while a submission runs and after one completed
func (c *Controller) SubmitEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.running && c.state.Stage != StageComplete
}

func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return ErrSubmissionInFlight
	}
	if c.state.Stage == StageComplete {
		return ErrAlreadyComplete
	}

	c.running = true
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}

// run is the state of one attempt
type run struct {
	id      string
	logger  *log.Entry
	outcome *Outcome
}

func (c *Controller) enter(r *run, stage Stage) {
	c.transition(r, State{Stage: stage}, utils.Localize(c.lang, stage.messageID(), nil))
}

func (c *Controller) transition(r *run, state State, text string) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	status := Status{Stage: state.Stage, Text: text, At: c.now()}
	r.outcome.State = state
	r.outcome.Trail = append(r.outcome.Trail, status)

	r.logger.WithField("state", state.String()).Debug("stage changed")
	for _, o := range c.observers {
		o.StageChanged(r.id, status)
	}
}

// fail moves the controller to Failed(stage) and re-enables submission.
// Artifacts uploaded before a fatal failure go through the orphan policy.
func (c *Controller) fail(ctx context.Context, r *run, se *StageError) (*Outcome, error) {
	if se.Stage.Fatal() {
		c.cleanup(ctx, r)
	}

	text := utils.Localize(c.lang, StageFailed.messageID(), map[string]interface{}{"Error": se.Err.Error()})
	c.transition(r, State{Stage: StageFailed, FailedAt: se.Stage}, text)

	if se.Stage != StageValidating {
		r.logger.WithField("stage", se.Stage.String()).WithError(se.Err).Error("submission failed")
	}

	c.pad.Thaw()
	return r.outcome, se
}

// Submit runs the whole sequence from validation. A failed submission
// can be retried by calling Submit again.
func (c *Controller) Submit(ctx context.Context) (*Outcome, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	r := &run{id: c.newID(), outcome: &Outcome{}}
	r.outcome.SubmissionID = r.id
	r.logger = log.WithField("prefix", "pipeline").WithField("submission_id", r.id)

	v := c.model.Variant()
	r.logger = r.logger.WithField("consent_type", v.Type)

	c.enter(r, StageValidating)

	if err := c.deps.Readiness.Wait(ctx); err != nil {
		return c.fail(ctx, r, newStageError(StageValidating, fmt.Errorf("%w: %s", ErrNotReady, err), "fail to acquire capabilities"))
	}

	result := c.model.Validate(c.pad)
	if !result.Valid {
		r.outcome.Validation = &result
		return c.fail(ctx, r, &StageError{Stage: StageValidating, Err: ErrInvalidDraft})
	}

	c.pad.Freeze()

	draft := c.model.Snapshot()
	at := c.now()

	c.enter(r, StageUploadingSignature)
	img, err := c.pad.ToImage()
	if err != nil {
		return c.fail(ctx, r, newStageError(StageUploadingSignature, err, "fail to rasterize signature"))
	}

	sigURL, err := c.deps.Store.Upload(ctx, img, storage.SignatureContentType,
		storage.SignaturePath(v, draft.FirstName, draft.LastName, at))
	if err != nil {
		return c.fail(ctx, r, newStageError(StageUploadingSignature, err, "fail to upload signature"))
	}
	r.outcome.Artifacts.SignatureURL = sigURL

	c.enter(r, StageGeneratingDocument)
	doc, err := c.deps.Renderer.Render(document.Snapshot{
		Variant:   v,
		Draft:     draft,
		Signature: img,
		CreatedAt: at,
	})
	if err != nil {
		return c.fail(ctx, r, newStageError(StageGeneratingDocument, err, "fail to render document"))
	}

	c.enter(r, StageUploadingDocument)
	docURL, err := c.deps.Store.Upload(ctx, doc.Bytes, storage.DocumentContentType,
		storage.DocumentPath(v, draft.FirstName, draft.LastName, at))
	if err != nil {
		return c.fail(ctx, r, newStageError(StageUploadingDocument, err, "fail to upload document"))
	}
	r.outcome.Artifacts.DocumentURL = docURL

	c.enter(r, StagePersisting)
	req := consentRequest(v.Type, draft, r.outcome.Artifacts, v.HasScreening())
	consentID, err := c.deps.Repository.SaveConsent(ctx, req)
	if err != nil {
		return c.fail(ctx, r, newStageError(StagePersisting, err, "fail to save consent"))
	}
	r.outcome.ConsentID = consentID

	c.enter(r, StageSyncing)
	payload := schema.NewSyncPayload(req.Record("", at), v.CRM.CustomFieldKey, v.CRM.Tags, v.YesLabels(draft.Answers))
	if _, err := c.deps.Sync.SyncConsent(ctx, payload); err != nil {
		r.logger.WithError(err).Warn("fail to sync consent to crm")
	} else {
		r.outcome.Synced = true
	}

	c.enter(r, StageComplete)
	r.outcome.Confirmation = v.Confirmation
	r.logger.WithField("consent_id", consentID).Info("submission complete")

	return r.outcome, nil
}

// cleanup applies the orphan policy to the artifacts uploaded so far
func (c *Controller) cleanup(ctx context.Context, r *run) {
	addresses := make([]string, 0, 2)
	for _, a := range []string{r.outcome.Artifacts.SignatureURL, r.outcome.Artifacts.DocumentURL} {
		if a != "" {
			addresses = append(addresses, a)
		}
	}

	if len(addresses) == 0 {
		return
	}

	logger := r.logger.WithField("addresses", addresses)
	if c.orphans != OrphanDelete {
		logger.Warn("artifacts left orphaned")
		return
	}

	if err := c.deps.Store.Delete(ctx, addresses...); err != nil {
		logger.WithError(err).Warn("fail to delete orphaned artifacts")
		return
	}
	logger.Info("orphaned artifacts deleted")
}

func consentRequest(t schema.ConsentType, d form.Draft, a Artifacts, screening bool) schema.ConsentRequest {
	req := schema.ConsentRequest{
		ConsentType:  t,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		Phone:        d.Phone,
		DateOfBirth:  d.DateOfBirth,
		GHLContactID: d.GHLContactID,
		ConsentDate:  d.ConsentDate,
		ConsentGiven: d.ConsentGiven,
		SignatureURL: a.SignatureURL,
		PDFURL:       a.DocumentURL,
	}

	if screening {
		req.HealthScreening = d.Answers
		if len(d.Details) > 0 {
			req.ScreeningDetails = d.Details
		}
	}

	return req
}
