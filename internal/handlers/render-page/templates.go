package renderpage

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

var (
	applyTemplate    = parse("templates/apply.html")
	thankYouTemplate = parse("templates/thank-you.html")
)

func renderApply(w io.Writer, p ApplyPage) error {
	return applyTemplate.Execute(w, p)
}

func renderThankYou(w io.Writer, p ThankYouPage) error {
	return thankYouTemplate.Execute(w, p)
}

func parse(file string) *template.Template {
	return template.Must(
		template.New("layout.html").ParseFS(templateFiles, "templates/layout.html", file))
}

// Static serves the page scripts and stylesheet; mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
