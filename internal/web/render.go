package web

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/JamesPrial/todo-db/internal/ui"
)

//go:embed templates/*.html
var templateFS embed.FS

const pageTemplateName = "index.html"

// TemplateRenderer implements echo.Renderer over the embedded templates.
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses the embedded templates once.
func NewTemplateRenderer() *TemplateRenderer {
	t := template.Must(template.New("").
		Funcs(template.FuncMap{"toggleLabel": ui.ToggleLabel}).
		ParseFS(templateFS, "templates/*.html"))
	return &TemplateRenderer{templates: t}
}

// Render executes the named template into w.
func (r *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
