// file: internal/covers/placeholder.go
// version: 1.0.0
// guid: c2291924-e0dc-4b78-a740-534e2b7b06f2

package covers

import (
	"bytes"
	"html/template"
	"strings"
)

var placeholderTmpl = template.Must(template.New("placeholder").Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="300" height="450" viewBox="0 0 300 450" role="img" aria-label="{{.Title}} by {{.Author}}">
<rect width="300" height="450" fill="#2f3e46"/>
<rect x="16" y="16" width="268" height="418" fill="none" stroke="#cad2c5" stroke-width="2"/>
<text x="150" y="200" fill="#f6f5ee" font-family="Georgia, serif" font-size="22" text-anchor="middle">{{.Title}}</text>
<text x="150" y="250" fill="#cad2c5" font-family="Georgia, serif" font-size="16" font-style="italic" text-anchor="middle">{{.Author}}</text>
</svg>
`))

// Placeholder renders an SVG cover showing title and author text. It is
// what the page shows when no candidate loads.
func Placeholder(title, author string) []byte {
	var buf bytes.Buffer
	data := struct{ Title, Author string }{
		Title:  truncate(strings.TrimSpace(title), 40),
		Author: truncate(strings.TrimSpace(author), 48),
	}
	// The template only ranges over two strings; execution cannot fail.
	_ = placeholderTmpl.Execute(&buf, data)
	return buf.Bytes()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
