package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"go-contact-backend/internal/domain"
)

//go:embed templates
var templateFS embed.FS

// TemplateRenderer renders the HTML email bodies
type TemplateRenderer struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	// nl2br expects input that is already HTML-escaped and only inserts line breaks
	"nl2br": func(escaped string) template.HTML {
		s := strings.ReplaceAll(escaped, "\r\n", "\n")
		return template.HTML(strings.ReplaceAll(s, "\n", "<br>\n"))
	},
}

// NewTemplateRenderer parses the embedded templates, keyed by their path
// relative to the templates directory, e.g. "emails/contact.html".
func NewTemplateRenderer() (*TemplateRenderer, error) {
	return NewTemplateRendererFS(templateFS, "templates")
}

// NewTemplateRendererFS parses every .html file under root in fsys
func NewTemplateRendererFS(fsys fs.FS, root string) (*TemplateRenderer, error) {
	r := &TemplateRenderer{templates: map[string]*template.Template{}}
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		name := strings.TrimPrefix(path, root+"/")
		tmpl, err := template.New(d.Name()).Funcs(funcs).ParseFS(fsys, path)
		if err != nil {
			return fmt.Errorf("failed to parse email template %s: %w", name, err)
		}
		r.templates[name] = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Render executes the named template with values
func (r *TemplateRenderer) Render(name string, values map[string]any) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, name)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, values); err != nil {
		return "", fmt.Errorf("failed to execute email template %s: %w", name, err)
	}
	return body.String(), nil
}
