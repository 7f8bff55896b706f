package pipeline

import (
	"context"
	"sync"

	"github.com/bitmark-inc/consent-api/document"
	"github.com/bitmark-inc/consent-api/utils"
	"github.com/bitmark-inc/consent-api/variant"
)

// Capability acquires something a submission depends on
type Capability func(ctx context.Context) error

// Readiness resolves once, after every capability has been acquired
type Readiness struct {
	capabilities []Capability

	start sync.Once
	done  chan struct{}
	err   error
}

func NewReadiness(capabilities ...Capability) *Readiness {
	return &Readiness{
		capabilities: capabilities,
		done:         make(chan struct{}),
	}
}

// DefaultCapabilities loads the variant definitions, the message bundle
// and the renderer fonts
func DefaultCapabilities(r *document.Renderer) []Capability {
	return []Capability{
		func(context.Context) error {
			_, err := variant.Default()
			return err
		},
		func(context.Context) error {
			return utils.InitI18NBundle()
		},
		func(context.Context) error {
			return r.Warmup()
		},
	}
}

// Start begins the acquisition in the background. Only the first call
// has an effect.
func (r *Readiness) Start(ctx context.Context) {
	r.start.Do(func() {
		go func() {
			defer close(r.done)
			for _, c := range r.capabilities {
				if err := c(ctx); err != nil {
					r.err = err
					return
				}
			}
		}()
	})
}

// Wait blocks until the readiness resolves or ctx is done
func (r *Readiness) Wait(ctx context.Context) error {
	r.Start(context.Background())

	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the readiness resolved successfully
func (r *Readiness) Ready() bool {
	select {
	case <-r.done:
		return r.err == nil
	default:
		return false
	}
}
