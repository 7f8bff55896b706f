package utils

import (
	"embed"
	"path"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed i18n/*.yaml
var messageFiles embed.FS

var (
	bundle     *i18n.Bundle
	bundleOnce sync.Once
	bundleErr  error
)

// InitI18NBundle loads the embedded message files. It is safe to call
// more than once.
func InitI18NBundle() error {
	bundleOnce.Do(func() {
		b := i18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

		entries, err := messageFiles.ReadDir("i18n")
		if err != nil {
			bundleErr = err
			return
		}

		for _, e := range entries {
			p := path.Join("i18n", e.Name())
			buf, err := messageFiles.ReadFile(p)
			if err != nil {
				bundleErr = err
				return
			}
			if _, err := b.ParseMessageFileBytes(buf, e.Name()); err != nil {
				bundleErr = err
				return
			}
		}

		bundle = b
	})

	return bundleErr
}

// NewLocalizer returns a localizer for lang with english as fallback
func NewLocalizer(lang string) *i18n.Localizer {
	if err := InitI18NBundle(); err != nil {
		log.WithError(err).Error("fail to load i18n bundle")
	}

	lang = strings.ReplaceAll(strings.ToLower(lang), "_", "-")
	return i18n.NewLocalizer(bundle, lang, "en")
}

// Localize translates a message id. The id itself is returned when the
// message is unknown so callers always have something to show.
func Localize(lang, messageID string, data map[string]interface{}) string {
	if InitI18NBundle() != nil {
		return messageID
	}

	msg, err := NewLocalizer(lang).Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		log.WithField("prefix", "i18n").WithField("id", messageID).WithError(err).Debug("missing translation")
		return messageID
	}

	return msg
}
