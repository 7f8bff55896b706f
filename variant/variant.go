// Package variant holds the per-variant configuration of the consent
// pipeline: legal text, required fields, screening questions, storage
// naming and CRM markers. Definitions are embedded YAML files.
package variant

import (
	"fmt"

	"github.com/bitmark-inc/consent-api/schema"
)

// Answer values accepted for a screening question
const (
	AnswerYes = "yes"
	AnswerNo  = "no"
	AnswerNA  = "na"
)

var (
	ErrVariantNotFound  = fmt.Errorf("consent variant not found")
	ErrInvalidVariant   = fmt.Errorf("invalid consent variant definition")
	ErrRegistryNotReady = fmt.Errorf("variant registry is not loaded")
)

type Clinic struct {
	Name        string `yaml:"name" json:"name"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Address     string `yaml:"address" json:"address"`
	Phone       string `yaml:"phone" json:"phone"`
	Email       string `yaml:"email" json:"email"`
}

// Question is a health-screening question. Label is the human readable
// name used in validation summaries and documents.
type Question struct {
	ID      string `yaml:"id" json:"id"`
	Text    string `yaml:"text" json:"text"`
	Note    string `yaml:"note" json:"note,omitempty"`
	Label   string `yaml:"label" json:"label"`
	AllowNA bool   `yaml:"allow_na" json:"allow_na"`
	Details bool   `yaml:"details" json:"details"`
}

// Accepts reports whether an answer is in the closed set of the question
func (q Question) Accepts(answer string) bool {
	switch answer {
	case AnswerYes, AnswerNo:
		return true
	case AnswerNA:
		return q.AllowNA
	}
	return false
}

type Paragraph struct {
	Heading string `yaml:"heading" json:"heading,omitempty"`
	Text    string `yaml:"text" json:"text"`
}

// Section is a labeled subsection of the legal/educational text
type Section struct {
	Title      string      `yaml:"title" json:"title"`
	Intro      string      `yaml:"intro" json:"intro,omitempty"`
	Paragraphs []Paragraph `yaml:"paragraphs" json:"paragraphs,omitempty"`
	Bullets    []string    `yaml:"bullets" json:"bullets,omitempty"`
}

type Storage struct {
	SignatureFolder string `yaml:"signature_folder" json:"signature_folder"`
	DocumentFolder  string `yaml:"document_folder" json:"document_folder"`
	DocumentPrefix  string `yaml:"document_prefix" json:"document_prefix"`
}

type CRM struct {
	CustomFieldKey string   `yaml:"custom_field_key" json:"custom_field_key"`
	Tags           []string `yaml:"tags" json:"tags"`
}

// Config parameterizes one consent variant
type Config struct {
	Type             schema.ConsentType `yaml:"type" json:"type"`
	Title            string             `yaml:"title" json:"title"`
	ShortTitle       string             `yaml:"short_title" json:"short_title"`
	RequiredFields   []string           `yaml:"required_fields" json:"required_fields"`
	Screening        []Question         `yaml:"screening" json:"screening,omitempty"`
	Sections         []Section          `yaml:"sections" json:"sections"`
	Acknowledgments  []string           `yaml:"acknowledgments" json:"acknowledgments,omitempty"`
	ConsentStatement string             `yaml:"consent_statement" json:"consent_statement"`
	Confirmation     string             `yaml:"confirmation" json:"confirmation"`
	Storage          Storage            `yaml:"storage" json:"storage"`
	CRM              CRM                `yaml:"crm" json:"crm"`
	Clinic           Clinic             `yaml:"-" json:"clinic"`
}

// HasScreening reports whether the variant carries health-screening questions
func (c *Config) HasScreening() bool {
	return len(c.Screening) > 0
}

// Question returns the screening question with the given id
func (c *Config) Question(id string) (Question, bool) {
	for _, q := range c.Screening {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// YesLabels returns the labels of every question answered "yes", in
// question order
func (c *Config) YesLabels(answers map[string]string) []string {
	labels := make([]string, 0)
	for _, q := range c.Screening {
		if answers[q.ID] == AnswerYes {
			labels = append(labels, q.Label)
		}
	}
	return labels
}

func (c *Config) validate() error {
	if _, err := schema.ParseConsentType(string(c.Type)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidVariant, err)
	}

	if c.Title == "" {
		return fmt.Errorf("%w: %s has no title", ErrInvalidVariant, c.Type)
	}

	if c.CRM.CustomFieldKey == "" {
		return fmt.Errorf("%w: %s has no crm custom field key", ErrInvalidVariant, c.Type)
	}

	seen := map[string]struct{}{}
	for _, q := range c.Screening {
		if q.ID == "" || q.Label == "" {
			return fmt.Errorf("%w: %s has a screening question without id or label", ErrInvalidVariant, c.Type)
		}
		if _, ok := seen[q.ID]; ok {
			return fmt.Errorf("%w: %s has duplicated question %s", ErrInvalidVariant, c.Type, q.ID)
		}
		seen[q.ID] = struct{}{}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Storage.SignatureFolder == "" {
		c.Storage.SignatureFolder = "signatures"
	}
	if c.Storage.DocumentFolder == "" {
		c.Storage.DocumentFolder = "consents"
	}
	if c.Storage.DocumentPrefix == "" {
		c.Storage.DocumentPrefix = string(c.Type) + "-consent"
	}
	if c.ShortTitle == "" {
		c.ShortTitle = c.Title
	}
}
