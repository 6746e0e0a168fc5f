// file: internal/server/page.go
// version: 1.0.0
// guid: 5d3a8e2c-7b61-4f0e-a2d4-9c1e6b8f3a70

package server

import (
	"embed"
	"html/template"

	"github.com/jdfalk/bookclub/internal/metadata"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// pageView flattens optional detail fields so the template never deals
// with pointers.
type pageView struct {
	SiteName       string
	Title          string
	Author         string
	Override       bool
	UpdatedAt      string
	Detail         metadata.BookDetail
	ISBN           string
	PublishedDate  string
	PageCount      int
	Candidates     []string
	ProbeTimeoutMS int64
	MinPixels      int
}

func newPageView(deps *renderDeps, sel Selection, detail metadata.BookDetail, candidates []string) pageView {
	view := pageView{
		SiteName:       deps.cfg.SiteName,
		Title:          detail.Title,
		Author:         detail.Author,
		Override:       sel.Origin == OriginOverride,
		Detail:         detail,
		Candidates:     candidates,
		ProbeTimeoutMS: deps.prober.Timeout().Milliseconds(),
		MinPixels:      deps.prober.MinPixels(),
	}
	if view.SiteName == "" {
		view.SiteName = "Book Club"
	}
	if sel.UpdatedAt != nil {
		view.UpdatedAt = sel.UpdatedAt.Format("January 2, 2006")
	}
	if detail.ISBN != nil {
		view.ISBN = *detail.ISBN
	}
	if detail.PublishedDate != nil {
		view.PublishedDate = *detail.PublishedDate
	}
	if detail.PageCount != nil {
		view.PageCount = *detail.PageCount
	}
	return view
}
