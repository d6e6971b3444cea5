// Package template renders email subjects and bodies from named or inline
// templates.
package template

import (
	"errors"
	"fmt"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"
)

// ErrNoTemplateDir is returned when a named template is requested but no
// template directory was configured or the directory does not exist.
var ErrNoTemplateDir = errors.New("template directory not set or does not exist")

// defaultSubject is used when neither a subject template nor a subject
// context key is available.
const defaultSubject = "No Subject"

// Engine renders templates from a configured directory. Directory-loaded
// templates are HTML-escaped; inline template strings are not.
type Engine struct {
	dir string
}

// New creates an Engine reading named templates from dir. An empty dir is
// allowed; only the named-template methods require it.
func New(dir string) *Engine {
	return &Engine{dir: dir}
}

// RenderTemplate renders the named template file against context.
// Output is auto-escaped.
func (e *Engine) RenderTemplate(name string, context map[string]any) (string, error) {
	if e.dir == "" {
		return "", ErrNoTemplateDir
	}
	if _, err := os.Stat(e.dir); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoTemplateDir, e.dir)
	}

	path := filepath.Join(e.dir, name)
	tmpl, err := htmltemplate.ParseFiles(path)
	if err != nil {
		return "", fmt.Errorf("failed to load template %s: %w", name, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, context); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return b.String(), nil
}

// RenderString renders an inline template string against context, bypassing
// the directory lookup. Output is not escaped.
func (e *Engine) RenderString(text string, context map[string]any) (string, error) {
	tmpl, err := texttemplate.New("inline").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template string: %w", err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, context); err != nil {
		return "", fmt.Errorf("failed to render template string: %w", err)
	}
	return b.String(), nil
}

// RenderHTMLEmail renders the named HTML body template and resolves the
// subject: the subject template wins, then the context "subject" key, then
// "No Subject".
func (e *Engine) RenderHTMLEmail(name string, context map[string]any, subjectTemplate string) (subject, body string, err error) {
	body, err = e.RenderTemplate(name, context)
	if err != nil {
		return "", "", err
	}

	subject, err = e.resolveSubject(context, subjectTemplate)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

// RenderTextEmail renders the named text body template with the same subject
// resolution as RenderHTMLEmail.
func (e *Engine) RenderTextEmail(name string, context map[string]any, subjectTemplate string) (subject, body string, err error) {
	return e.RenderHTMLEmail(name, context, subjectTemplate)
}

func (e *Engine) resolveSubject(context map[string]any, subjectTemplate string) (string, error) {
	if subjectTemplate != "" {
		return e.RenderString(subjectTemplate, context)
	}
	if v, ok := context["subject"]; ok {
		return fmt.Sprint(v), nil
	}
	return defaultSubject, nil
}
