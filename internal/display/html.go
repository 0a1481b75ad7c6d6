package display

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var sessionTemplate = template.Must(template.New("session.html").Funcs(template.FuncMap{
	"seconds": formatSeconds,
	"percent": formatPercent,
}).ParseFS(templateFS, "templates/session.html"))

// RenderHTML writes the session page. Pending sessions subscribe to the
// stream endpoint and reload once the session is terminal.
func RenderHTML(w io.Writer, s Snapshot) error {
	return sessionTemplate.Execute(w, s)
}
