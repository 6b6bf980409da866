package templates

import (
	"bytes"
	"embed"
	"fmt"
	html "html/template"
)

//go:embed *.html
var files embed.FS

const baseName = "email_base"

// Renderer composes a per-type content template inside the shared base
// layout, mirroring how notification emails are assembled from a common
// frame plus event-specific body.
type Renderer struct {
	set *html.Template
}

func NewRenderer() (*Renderer, error) {
	set, err := html.ParseFS(files, "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	if set.Lookup(baseName+".html") == nil {
		return nil, fmt.Errorf("missing base template %q", baseName)
	}
	return &Renderer{set: set}, nil
}

// Render executes the named content template with data, then wraps the
// result in the base layout under the "content" key.
func (r *Renderer) Render(name string, data map[string]any) (string, error) {
	content := r.set.Lookup(name + ".html")
	if content == nil {
		return "", fmt.Errorf("unknown email template %q", name)
	}

	var body bytes.Buffer
	if err := content.Execute(&body, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}

	merged := make(map[string]any, len(data)+1)
	for k, v := range data {
		merged[k] = v
	}
	merged["content"] = html.HTML(body.String())

	var out bytes.Buffer
	if err := r.set.Lookup(baseName+".html").Execute(&out, merged); err != nil {
		return "", fmt.Errorf("render base layout: %w", err)
	}
	return out.String(), nil
}
