package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitI18NBundle(t *testing.T) {
	require.NoError(t, InitI18NBundle())
	require.NoError(t, InitI18NBundle())
}

func TestLocalize(t *testing.T) {
	assert.Equal(t, "Uploading signature...", Localize("en", "status_uploading_signature", nil))
	assert.Equal(t, "Subiendo firma...", Localize("es", "status_uploading_signature", nil))
	assert.Equal(t, "Consent Checkbox", Localize("", "field_consent_checkbox", nil))
	assert.Equal(t, "Error: boom", Localize("en", "status_failed", map[string]interface{}{"Error": "boom"}))
}

func TestLocalizeFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, "Signature", Localize("fr", "field_signature", nil))
}

func TestLocalizeUnknownMessage(t *testing.T) {
	assert.Equal(t, "no_such_message", Localize("en", "no_such_message", nil))
}
