// Package templates renders the callback notice pages shown in the
// browser window the provider redirects back to.
package templates

import (
	"embed"
	"html/template"
	"io"
)

//go:embed html/*.html
var content embed.FS

// Templates manages the HTML templates
type Templates struct {
	success *template.Template
	error   *template.Template
}

// LoadTemplates loads and parses all HTML templates
func LoadTemplates() (*Templates, error) {
	t := &Templates{}
	var err error

	// Load login success page template
	if t.success, err = template.ParseFS(content, "html/success.html", "html/layout.html"); err != nil {
		return nil, err
	}

	// Load error page template
	if t.error, err = template.ParseFS(content, "html/error.html", "html/layout.html"); err != nil {
		return nil, err
	}

	return t, nil
}

// SuccessData holds data for the login success page
type SuccessData struct {
	Message string
}

// RenderSuccess renders the page shown after a completed login. The
// page posts {type: "auth_success"} to the opener window and then
// closes itself.
func (t *Templates) RenderSuccess(w io.Writer, data SuccessData) error {
	return t.success.ExecuteTemplate(w, "layout", data)
}

// ErrorData holds data for the error page
type ErrorData struct {
	Title   string
	Message string
}

// RenderError renders the error page. Message may contain text taken
// from the incoming request; html/template escapes it.
func (t *Templates) RenderError(w io.Writer, data ErrorData) error {
	return t.error.ExecuteTemplate(w, "layout", data)
}
