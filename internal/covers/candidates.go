// file: internal/covers/candidates.go
// version: 1.0.0
// guid: 943a2819-9db5-41aa-9dfe-28d1ad6adedf

// Package covers derives cover image candidates for a book and probes them
// in order until one loads.
package covers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jdfalk/bookclub/internal/metadata"
)

// DefaultServiceURL is the Open Library covers endpoint.
const DefaultServiceURL = "https://covers.openlibrary.org/b"

// Size variants understood by the cover service.
const (
	SizeLarge  = "L"
	SizeMedium = "M"
)

var zoomParam = regexp.MustCompile(`([?&])zoom=1(&|$)`)

// HighResolution rewrites a zoom=1 query parameter to zoom=0. URLs without
// that parameter are returned unchanged.
func HighResolution(thumbnail string) string {
	return zoomParam.ReplaceAllString(thumbnail, "${1}zoom=0${2}")
}

// ISBNCoverURL builds {service}/isbn/{isbn}-{size}.jpg.
func ISBNCoverURL(serviceURL, isbn, size string) string {
	if serviceURL == "" {
		serviceURL = DefaultServiceURL
	}
	return fmt.Sprintf("%s/isbn/%s-%s.jpg", strings.TrimRight(serviceURL, "/"), strings.TrimSpace(isbn), size)
}

// DeriveCandidates lists cover URLs in probing order: the thumbnail's
// high-resolution variant and the thumbnail itself, then large and medium
// covers for the primary ISBN, then large and medium covers for each
// alternate ISBN. Empty entries are dropped; duplicates are kept.
func DeriveCandidates(detail metadata.BookDetail, serviceURL string) []string {
	var raw []string
	if detail.Thumbnail != nil && *detail.Thumbnail != "" {
		raw = append(raw, HighResolution(*detail.Thumbnail), *detail.Thumbnail)
	}
	if detail.ISBN != nil && strings.TrimSpace(*detail.ISBN) != "" {
		raw = append(raw,
			ISBNCoverURL(serviceURL, *detail.ISBN, SizeLarge),
			ISBNCoverURL(serviceURL, *detail.ISBN, SizeMedium))
	}
	for _, isbn := range detail.AlternateISBNs {
		if strings.TrimSpace(isbn) == "" {
			continue
		}
		raw = append(raw,
			ISBNCoverURL(serviceURL, isbn, SizeLarge),
			ISBNCoverURL(serviceURL, isbn, SizeMedium))
	}

	candidates := make([]string, 0, len(raw))
	for _, u := range raw {
		if strings.TrimSpace(u) != "" {
			candidates = append(candidates, u)
		}
	}
	return candidates
}
