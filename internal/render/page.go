package render

import (
	"bytes"
	"html/template"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{margin:0;min-height:100vh;display:flex;align-items:center;justify-content:center;background:#0f172a;font-family:sans-serif;color:#e2e8f0}
.page{max-width:600px;width:100%}
.page svg{width:100%;height:auto;display:block}
.error{padding:2rem;border-radius:12px;background:#1e1b4b;text-align:center}
{{if .Demo}}.demo{font-size:12px;text-align:center;color:#94a3b8;padding:8px}{{end}}
</style>
</head>
<body>
{{if .Message}}<div class="error"><h1>Linkitylink</h1><p>{{.Message}}</p></div>{{else}}<div class="page">{{.SVG}}{{if .Demo}}<div class="demo">Demo page</div>{{end}}</div>{{end}}
</body>
</html>
`))

type pageData struct {
	Title   string
	SVG     template.HTML
	Demo    bool
	Message string
}

// Page wraps a rendered SVG in a standalone HTML page. demo marks pages
// built from the fallback link set.
func Page(title, svg string, demo bool) ([]byte, error) {
	if title == "" {
		title = defaultHeading
	}
	// svg comes from SVG(), which escapes every piece of free text.
	return execute(pageData{Title: title, SVG: template.HTML(svg), Demo: demo})
}

// ErrorPage renders a minimal themed page carrying message.
func ErrorPage(message string) ([]byte, error) {
	return execute(pageData{Title: "Linkitylink", Message: message})
}

func execute(data pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
