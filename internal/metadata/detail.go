// file: internal/metadata/detail.go
// version: 1.0.0
// guid: 6180644d-2e98-4104-858b-e078787ff171

package metadata

// DefaultDescription is shown when no usable description was found.
const DefaultDescription = "A compelling read selected for our literary society."

// BookDetail is the render-ready metadata for one book. It is computed per
// request and never persisted.
type BookDetail struct {
	Title          string   `json:"title" yaml:"title"`
	Author         string   `json:"author" yaml:"author"`
	Description    string   `json:"description" yaml:"description"`
	ISBN           *string  `json:"isbn" yaml:"isbn"`
	AlternateISBNs []string `json:"alternateIsbns" yaml:"alternateIsbns"`
	PublishedDate  *string  `json:"publishedDate,omitempty" yaml:"publishedDate,omitempty"`
	PageCount      *int     `json:"pageCount,omitempty" yaml:"pageCount,omitempty"`
	Categories     []string `json:"categories,omitempty" yaml:"categories,omitempty"`
	Thumbnail      *string  `json:"thumbnail" yaml:"thumbnail"`
}

// Fallback is the deterministic record used when the lookup yields nothing.
func Fallback(title, author string) BookDetail {
	return BookDetail{
		Title:          title,
		Author:         author,
		Description:    DefaultDescription,
		AlternateISBNs: []string{},
	}
}

// Clone returns a deep copy so cached details can be handed out safely.
func (d BookDetail) Clone() BookDetail {
	out := d
	out.ISBN = cloneString(d.ISBN)
	out.PublishedDate = cloneString(d.PublishedDate)
	out.Thumbnail = cloneString(d.Thumbnail)
	if d.PageCount != nil {
		n := *d.PageCount
		out.PageCount = &n
	}
	out.AlternateISBNs = append([]string{}, d.AlternateISBNs...)
	if d.Categories != nil {
		out.Categories = append([]string(nil), d.Categories...)
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func stringPtr(s string) *string {
	return &s
}
