package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/consent-api/pipeline"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "consent", c.Mongo.Database)
	assert.Equal(t, "consent-documents", c.Supabase.Bucket)
	assert.Equal(t, "https://services.leadconnectorhq.com", c.GHL.Endpoint)

	policy, err := c.Orphans()
	require.NoError(t, err)
	assert.Equal(t, pipeline.OrphanKeep, policy)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "consent.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
orphan_policy: delete
server:
  addr: ":9000"
  allow_origins: [https://forms.example.com]
supabase:
  url: https://project.supabase.co
  bucket: signed
ghl:
  location_id: loc-1
`), 0o600))

	t.Setenv("CONSENT_SUPABASE_BUCKET", "override")
	t.Setenv("CONSENT_GHL_TOKEN", "secret")

	c, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, []string{"https://forms.example.com"}, c.Server.AllowOrigins)
	assert.Equal(t, "https://project.supabase.co", c.Supabase.URL)
	assert.Equal(t, "override", c.Supabase.Bucket)
	assert.Equal(t, "secret", c.GHL.Token)
	assert.Equal(t, "loc-1", c.GHL.LocationID)

	policy, err := c.Orphans()
	require.NoError(t, err)
	assert.Equal(t, pipeline.OrphanDelete, policy)
}

func TestLoadRejectsUnknownOrphanPolicy(t *testing.T) {
	t.Setenv("CONSENT_ORPHAN_POLICY", "archive")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
