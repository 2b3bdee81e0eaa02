package formatter

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
)

// MapSection is one backend map fragment placed on a page.
type MapSection struct {
	Title string
	Body  string
}

var mapPage = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
section { margin-bottom: 2rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Sections}}<section>
<h2>{{.Title}}</h2>
{{.Body}}
</section>
{{end}}</body>
</html>
`))

type mapPageData struct {
	Title    string
	Sections []struct {
		Title string
		Body  template.HTML
	}
}

// MapPage wraps raw map fragments (HTML or SVG from the backend) into a standalone page.
//
// Fragments are inserted verbatim; titles are escaped.
func MapPage(title string, sections ...MapSection) ([]byte, error) {
	data := mapPageData{Title: title}
	for _, s := range sections {
		if s.Body == "" {
			continue
		}
		data.Sections = append(data.Sections, struct {
			Title string
			Body  template.HTML
		}{s.Title, template.HTML(s.Body)})
	}

	var buf bytes.Buffer
	if err := mapPage.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render map page: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteMapPage renders and writes a map page. It returns the absolute path.
func WriteMapPage(path, title string, sections ...MapSection) (string, error) {
	data, err := MapPage(title, sections...)
	if err != nil {
		return "", err
	}
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

// MapSummary is the one-line terminal rendering of a map fragment: "carte chargée (1234 octets)".
func MapSummary(loaded string, body string) string {
	if body == "" {
		return ""
	}
	return fmt.Sprintf("%s (%d octets)", loaded, len(body))
}
