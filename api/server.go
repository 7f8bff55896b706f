package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bitmark-inc/consent-api/pipeline"
	"github.com/bitmark-inc/consent-api/schema"
	"github.com/bitmark-inc/consent-api/store"
	"github.com/bitmark-inc/consent-api/variant"
)

var log = logrus.WithField("prefix", "gin")

// ConsentSyncer relays a consent-completion event to the crm
type ConsentSyncer interface {
	Sync(ctx context.Context, p schema.SyncPayload) (*schema.SyncResponse, error)
}

type Options struct {
	TraceMode    bool
	AllowOrigins []string

	Store    store.MongoStore
	Registry *variant.Registry
	Syncer   ConsentSyncer

	Artifacts pipeline.ArtifactStore
	Renderer  pipeline.Renderer
	Readiness *pipeline.Readiness

	// Repository and Relationship default to the server itself
	Repository   pipeline.ConsentRepository
	Relationship pipeline.RelationshipSync
	OrphanPolicy pipeline.OrphanPolicy
}

type Server struct {
	httpServer *http.Server

	traceMode    bool
	allowOrigins []string

	mongoStore store.MongoStore
	registry   *variant.Registry
	syncer     ConsentSyncer

	pipelineDeps pipeline.Deps
	orphanPolicy pipeline.OrphanPolicy

	now func() time.Time
}

func NewServer(o Options) *Server {
	s := &Server{
		traceMode:    o.TraceMode,
		allowOrigins: o.AllowOrigins,
		mongoStore:   o.Store,
		registry:     o.Registry,
		syncer:       o.Syncer,
		orphanPolicy: o.OrphanPolicy,
		now:          time.Now,
	}

	s.pipelineDeps = pipeline.Deps{
		Store:      o.Artifacts,
		Repository: o.Repository,
		Sync:       o.Relationship,
		Renderer:   o.Renderer,
		Readiness:  o.Readiness,
	}
	if s.pipelineDeps.Repository == nil {
		s.pipelineDeps.Repository = s
	}
	if s.pipelineDeps.Sync == nil {
		s.pipelineDeps.Sync = s
	}

	return s
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.DumpRequest)
	r.Use(cors.New(corsConfig(s.allowOrigins)))

	r.GET("/healthz", s.healthz)

	api := r.Group("/api")
	api.POST("/consent-forms", s.createConsentForm)
	api.POST("/consent-to-ghl", s.syncConsentToCRM)

	consents := api.Group("/consents")
	consents.GET("/variants", s.listVariants)
	consents.GET("/variants/:type", s.getVariant)
	consents.POST("/:type/submissions", s.submitConsent)

	return r
}

// Run serves http on addr until Shutdown is called
func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.setupRouter(),
	}

	log.WithField("addr", addr).Info("server started")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthz(c *gin.Context) {
	if s.mongoStore != nil {
		if err := s.mongoStore.Ping(); err != nil {
			abortWithEncoding(c, http.StatusServiceUnavailable, errorServiceNotReady, err)
			return
		}
	}

	if s.pipelineDeps.Readiness != nil && !s.pipelineDeps.Readiness.Ready() {
		abortWithEncoding(c, http.StatusServiceUnavailable, errorServiceNotReady)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "OK"})
}
