package dashboard

import (
	"embed"
	"html/template"
	"io"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
)

//go:embed templates/*.html
var templatesFS embed.FS

// templateFuncs are the record formatting helpers available to every page.
var templateFuncs = template.FuncMap{
	"timeSpan": cancellations.TimeSpan,
	"period": func(fromTime string) string {
		return cancellations.ClassifyTimeOfDay(fromTime).Label()
	},
	"plural": func(count int, singular, plural string) string {
		if count == 1 {
			return singular
		}
		return plural
	},
}

type Renderer struct {
	pages *template.Template
}

func NewRenderer() (*Renderer, error) {
	pages, err := template.New("dashboard").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Renderer{pages: pages}, nil
}

// RenderPage writes the full dashboard page.
func (renderer *Renderer) RenderPage(writer io.Writer, page DashboardPageVM) error {
	return renderer.Render(writer, "layout.html", page)
}

func (renderer *Renderer) Render(writer io.Writer, name string, data any) error {
	return renderer.pages.ExecuteTemplate(writer, name, data)
}
