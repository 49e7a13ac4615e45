package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/vedran77/accounts/internal/transport/http/middleware"
	"github.com/vedran77/accounts/pkg/validator"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	pageHome     = "home.html"
	pageLogin    = "login.html"
	pageRegister = "register.html"
)

// Flash kinds.
const (
	flashSuccess     = "success"
	flashInfo        = "info"
	flashLoginError  = "login_error"
	flashVerifyError = "verify_email_error"
)

var funcs = template.FuncMap{
	"alertClass": func(kind string) string {
		switch kind {
		case flashSuccess:
			return "alert-success"
		case flashInfo:
			return "alert-info"
		default:
			return "alert-danger"
		}
	},
}

type registerForm struct {
	Username string
	Email    string
}

// view is the data every page template receives.
type view struct {
	Identity *middleware.Identity
	Flashes  map[string][]string

	// register
	Form   registerForm
	Errors validator.ValidationErrors

	// login
	LastUsername    string
	IdentifierLabel string
}

type Pages struct {
	pages map[string]*template.Template
}

func NewPages() (*Pages, error) {
	p := &Pages{pages: make(map[string]*template.Template)}
	for _, name := range []string{pageHome, pageLogin, pageRegister} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		p.pages[name] = t
	}
	return p, nil
}

// Render executes the page into memory first so a template error never
// leaves a half-written response.
func (p *Pages) Render(w http.ResponseWriter, status int, name string, data *view) error {
	t, ok := p.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
