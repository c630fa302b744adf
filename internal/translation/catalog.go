// Package translation holds the message catalog used for rejection messages
// and notification templates.
package translation

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/notify"
)

//go:embed default.yaml
var defaultCatalog []byte

// Catalog maps message keys to texts. Unknown keys translate to themselves.
type Catalog struct {
	texts     map[string]string
	templates map[string]*template.Template
}

var _ notify.Composer = (*Catalog)(nil)

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("translation: built-in catalog: %v", err))
	}
	return c
}

// Load returns the built-in catalog overlaid with the entries of the YAML
// file at path. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	base := Default()
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	overlay, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for k, v := range overlay.texts {
		base.texts[k] = v
	}
	for k, v := range overlay.templates {
		base.templates[k] = v
	}
	return base, nil
}

// Parse reads a flat YAML mapping of keys to texts. Email subjects and
// bodies are compiled as templates.
func Parse(data []byte) (*Catalog, error) {
	texts := map[string]string{}
	if err := yaml.Unmarshal(data, &texts); err != nil {
		return nil, err
	}
	c := &Catalog{texts: texts, templates: make(map[string]*template.Template)}
	for k, v := range texts {
		if !isTemplateKey(k) {
			continue
		}
		tmpl, err := template.New(k).Option("missingkey=error").Parse(v)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", k, err)
		}
		c.templates[k] = tmpl
	}
	return c, nil
}

// Text returns the text for key, or key itself when unknown.
func (c *Catalog) Text(key string) string {
	if v, ok := c.texts[key]; ok {
		return v
	}
	return key
}

// Compose renders the subject and body templates of kind.
func (c *Catalog) Compose(kind notify.Kind, data notify.Data) (string, string, error) {
	subject, err := c.render("email_"+string(kind)+"_subject", data)
	if err != nil {
		return "", "", err
	}
	body, err := c.render("email_"+string(kind)+"_body", data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func (c *Catalog) render(key string, data notify.Data) (string, error) {
	tmpl, ok := c.templates[key]
	if !ok {
		return "", fmt.Errorf("no template %q", key)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", key, err)
	}
	return b.String(), nil
}

func isTemplateKey(key string) bool {
	return strings.HasPrefix(key, "email_") &&
		(strings.HasSuffix(key, "_subject") || strings.HasSuffix(key, "_body"))
}
