package variant

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/bitmark-inc/consent-api/schema"
)

//go:embed variants/*.yaml
var embeddedVariants embed.FS

const clinicFile = "clinic.yaml"

// Registry indexes variant configurations by consent type
type Registry struct {
	clinic   Clinic
	variants map[schema.ConsentType]*Config
}

// Load parses every variant definition under dir in fsys. The clinic
// definition is shared by all variants.
func Load(fsys fs.FS, dir string) (*Registry, error) {
	r := &Registry{variants: map[schema.ConsentType]*Config{}}

	b, err := fs.ReadFile(fsys, path.Join(dir, clinicFile))
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, &r.clinic); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.IsDir() || e.Name() == clinicFile || path.Ext(e.Name()) != ".yaml" {
			continue
		}

		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}

		var c Config
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}

		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		c.applyDefaults()
		c.Clinic = r.clinic

		if _, ok := r.variants[c.Type]; ok {
			return nil, fmt.Errorf("%w: %s defined twice", ErrInvalidVariant, c.Type)
		}
		r.variants[c.Type] = &c
	}

	log.WithField("prefix", "variant").WithField("count", len(r.variants)).Debug("consent variants loaded")

	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the registry built from the embedded definitions
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Load(embeddedVariants, "variants")
	})
	return defaultRegistry, defaultErr
}

func (r *Registry) Get(t schema.ConsentType) (*Config, error) {
	if r == nil {
		return nil, ErrRegistryNotReady
	}

	c, ok := r.variants[t]
	if !ok {
		return nil, ErrVariantNotFound
	}
	return c, nil
}

func (r *Registry) Clinic() Clinic {
	return r.clinic
}

// Types returns the loaded consent types in schema order
func (r *Registry) Types() []schema.ConsentType {
	types := make([]schema.ConsentType, 0, len(r.variants))
	for _, t := range schema.ConsentTypes {
		if _, ok := r.variants[t]; ok {
			types = append(types, t)
		}
	}
	return types
}
