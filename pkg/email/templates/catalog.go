package templates

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrUnknownTemplate is returned when no template exists for a notification type.
var ErrUnknownTemplate = errors.New("templates: unknown notification type")

// Template describes the email sent for one notification type.
type Template struct {
	Subject string `yaml:"subject"`
	Heading string `yaml:"heading"`
	Intro   string `yaml:"intro"`
	Tag     string `yaml:"tag"`
}

// Message is a rendered email ready for a transport.
type Message struct {
	Subject string
	HTML    string
	Tag     string
}

// Catalog maps notification types to email templates.
type Catalog struct {
	templates map[string]Template
}

// ParseCatalog reads a YAML document of the form
//
//	document_processed:
//	  subject: Document Processing Complete
//	  heading: Your document is ready
func ParseCatalog(data []byte) (*Catalog, error) {
	var m map[string]Template
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("templates: parse catalog: %w", err)
	}
	for name, t := range m {
		if strings.TrimSpace(t.Subject) == "" {
			return nil, fmt.Errorf("templates: %q has no subject", name)
		}
	}
	return &Catalog{templates: m}, nil
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the template registered for eventType.
func (c *Catalog) Lookup(eventType string) (Template, bool) {
	t, ok := c.templates[eventType]
	return t, ok
}

// Compose renders the email for eventType with the event payload as template data.
func (c *Catalog) Compose(ctx context.Context, eventType string, data map[string]any) (Message, error) {
	t, ok := c.Lookup(eventType)
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, eventType)
	}

	html, err := Render(ctx, NotificationEmail(t, data))
	if err != nil {
		return Message{}, fmt.Errorf("templates: render %q: %w", eventType, err)
	}

	tag := t.Tag
	if tag == "" {
		tag = eventType
	}
	return Message{Subject: t.Subject, HTML: html, Tag: tag}, nil
}
