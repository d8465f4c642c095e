package notify

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"adherence-notify/internal/domain/entity"
)

//go:embed templates.yaml
var defaultTemplatesYAML []byte

// Template is the text of one notification type.
type Template struct {
	Title string            `yaml:"title"`
	Body  string            `yaml:"body"`
	Data  map[string]string `yaml:"data"`

	title *template.Template
	body  *template.Template
}

// Templates maps every notification type to its Template.
type Templates struct {
	byType map[entity.NotificationType]*Template
}

type templateFile struct {
	Templates map[string]*Template `yaml:"templates"`
}

// DefaultTemplates returns the embedded template table.
func DefaultTemplates() *Templates {
	t, err := ParseTemplates(defaultTemplatesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded notification templates: %v", err))
	}
	return t
}

// LoadTemplates returns the embedded table overlaid with the templates in
// path. An empty path returns the embedded table unchanged.
func LoadTemplates(path string) (*Templates, error) {
	base := DefaultTemplates()
	if path == "" {
		return base, nil
	}

	// #nosec G304 -- path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file: %w", err)
	}
	override, err := ParseTemplates(data)
	if err != nil {
		return nil, fmt.Errorf("templates file %s: %w", path, err)
	}
	maps.Copy(base.byType, override.byType)
	return base, nil
}

// ParseTemplates parses a YAML template table. Keys must be known
// notification types and every title and body must be a valid template.
func ParseTemplates(data []byte) (*Templates, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	t := &Templates{byType: make(map[entity.NotificationType]*Template, len(file.Templates))}
	for key, tmpl := range file.Templates {
		typ, err := entity.ParseNotificationType(key)
		if err != nil {
			return nil, err
		}
		if tmpl == nil || strings.TrimSpace(tmpl.Title) == "" {
			return nil, fmt.Errorf("template %s: title is required", key)
		}
		if tmpl.title, err = template.New(key + ".title").Option("missingkey=error").Parse(tmpl.Title); err != nil {
			return nil, fmt.Errorf("template %s title: %w", key, err)
		}
		if tmpl.body, err = template.New(key + ".body").Option("missingkey=error").Parse(tmpl.Body); err != nil {
			return nil, fmt.Errorf("template %s body: %w", key, err)
		}
		t.byType[typ] = tmpl
	}
	return t, nil
}

// Has reports whether typ has a template.
func (t *Templates) Has(typ entity.NotificationType) bool {
	_, ok := t.byType[typ]
	return ok
}

// Render produces the title, body and data payload for typ. The data
// carries "type", then the template's static data, then params.
func (t *Templates) Render(typ entity.NotificationType, params map[string]string) (title, body string, data map[string]string, err error) {
	tmpl, ok := t.byType[typ]
	if !ok {
		return "", "", nil, fmt.Errorf("no template for notification type %s", typ)
	}
	if params == nil {
		params = map[string]string{}
	}

	var sb strings.Builder
	if err := tmpl.title.Execute(&sb, params); err != nil {
		return "", "", nil, fmt.Errorf("render %s title: %w", typ, err)
	}
	title = sb.String()

	sb.Reset()
	if err := tmpl.body.Execute(&sb, params); err != nil {
		return "", "", nil, fmt.Errorf("render %s body: %w", typ, err)
	}
	body = sb.String()

	data = map[string]string{"type": typ.String()}
	maps.Copy(data, tmpl.Data)
	maps.Copy(data, params)
	return title, body, data, nil
}
