package app

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// Renderer holds the parsed content templates of the scheduling table.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every template up front so a broken template fails the
// process at startup instead of at trigger time.
func NewRenderer(sources map[string]string) (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(sources))}
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []string
	for _, name := range names {
		t, err := template.New(name).Option("missingkey=error").Parse(sources[name])
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		r.templates[name] = t
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("failed to parse templates: %s", strings.Join(problems, "; "))
	}
	return r, nil
}

// Render executes the named template against data.
func (r *Renderer) Render(name string, data any) (string, error) {
	t, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("template %q is not defined", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
