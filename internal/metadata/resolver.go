// file: internal/metadata/resolver.go
// version: 1.1.0
// guid: 918e29d9-0f9d-43c6-9de0-160d503209ea

package metadata

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jdfalk/bookclub/internal/cache"
	"github.com/jdfalk/bookclub/internal/metrics"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"
)

// preferredDescriptionLength is the rune count a description must exceed
// for its candidate to be preferred.
const preferredDescriptionLength = 100

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// ResolverOptions tunes a Resolver. Zero values select the defaults.
type ResolverOptions struct {
	MaxResults        int           // default 10
	Timeout           time.Duration // default 5s
	CacheTTL          time.Duration // 0 disables caching
	CacheMaxEntries   int           // default cache.DefaultMaxEntries
	RequestsPerMinute int           // 0 disables the outbound limiter
}

// Resolver turns a title/author pair into a BookDetail. Resolve never
// fails: every lookup problem ends in the Fallback record.
type Resolver struct {
	source     VolumeSearcher
	maxResults int
	timeout    time.Duration
	cache      *cache.Cache[BookDetail]
	limiter    *rate.Limiter
}

// NewResolver creates a resolver backed by source.
func NewResolver(source VolumeSearcher, opts ResolverOptions) *Resolver {
	r := &Resolver{
		source:     source,
		maxResults: opts.MaxResults,
		timeout:    opts.Timeout,
		cache:      cache.NewWithLimit[BookDetail](opts.CacheTTL, opts.CacheMaxEntries),
	}
	if r.maxResults <= 0 {
		r.maxResults = 10
	}
	if r.timeout <= 0 {
		r.timeout = 5 * time.Second
	}
	if opts.RequestsPerMinute > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), opts.RequestsPerMinute)
	}
	return r
}

// cacheKey folds case and Unicode composition so equivalent spellings of
// the same pair share an entry. It affects lookup only, never output.
func cacheKey(title, author string) string {
	return strings.ToLower(norm.NFC.String(phrase(title))) + "\x00" + strings.ToLower(norm.NFC.String(phrase(author)))
}

// Resolve looks the book up and normalizes the best candidate.
func (r *Resolver) Resolve(ctx context.Context, title, author string) BookDetail {
	key := cacheKey(title, author)
	if detail, ok := r.cache.Get(key); ok {
		metrics.IncMetadataLookup(metrics.LookupCacheHit)
		return detail.Clone()
	}

	volumes, outcome := r.lookup(ctx, title, author)
	if len(volumes) == 0 {
		metrics.IncMetadataLookup(outcome)
		return Fallback(title, author)
	}

	detail := Normalize(volumes[SelectCandidate(volumes)].VolumeInfo, title, author)
	metrics.IncMetadataLookup(metrics.LookupSelected)
	r.cache.Set(key, detail.Clone())
	return detail
}

// lookup performs the single bounded outbound request. On any failure it
// returns no volumes together with the fallback outcome label.
func (r *Resolver) lookup(ctx context.Context, title, author string) (volumes []Volume, outcome string) {
	if r.source == nil {
		return nil, metrics.LookupFallbackError
	}
	if r.limiter != nil && !r.limiter.Allow() {
		log.Printf("[WARN] metadata lookup for %q by %q skipped: outbound rate limit reached", title, author)
		return nil, metrics.LookupRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Panics from the source count as lookup failures.
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[ERROR] metadata source %s panicked: %v", r.source.Name(), p)
			volumes, outcome = nil, metrics.LookupFallbackError
		}
	}()

	start := time.Now()
	volumes, err := r.source.SearchVolumes(ctx, title, author, r.maxResults)
	metrics.ObserveMetadataLookup(time.Since(start))
	if err != nil {
		log.Printf("[WARN] metadata lookup for %q by %q via %s failed: %v", title, author, r.source.Name(), err)
		return nil, metrics.LookupFallbackError
	}
	if len(volumes) == 0 {
		log.Printf("[DEBUG] metadata lookup for %q by %q returned no candidates", title, author)
		return nil, metrics.LookupFallbackEmpty
	}
	return volumes, ""
}

// IsPreferred reports whether a candidate has either a substantial
// description or at least one industry identifier.
func IsPreferred(info VolumeInfo) bool {
	return utf8.RuneCountInString(info.Description) > preferredDescriptionLength ||
		len(info.IndustryIdentifiers) > 0
}

// SelectCandidate returns the index of the first preferred candidate in API
// order, or 0 when none is preferred. There is no further scoring.
func SelectCandidate(volumes []Volume) int {
	for i, v := range volumes {
		if IsPreferred(v.VolumeInfo) {
			return i
		}
	}
	return 0
}

// StripTags removes anything that looks like a markup tag.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// Normalize maps a selected candidate onto a BookDetail, falling back to
// the requested title/author where the candidate has none.
func Normalize(info VolumeInfo, title, author string) BookDetail {
	detail := BookDetail{
		Title:          title,
		Author:         author,
		Description:    DefaultDescription,
		AlternateISBNs: []string{},
	}
	if info.Title != "" {
		detail.Title = info.Title
	}
	if len(info.Authors) > 0 {
		detail.Author = strings.Join(info.Authors, ", ")
	}
	// Presence is judged on the raw value; a description that strips down to
	// nothing stays empty.
	if info.Description != "" {
		detail.Description = StripTags(info.Description)
	}

	primary := pickISBN(info.IndustryIdentifiers)
	if primary != "" {
		detail.ISBN = stringPtr(primary)
	}
	for _, id := range info.IndustryIdentifiers {
		if !strings.Contains(id.Type, "ISBN") || id.Identifier == "" || id.Identifier == primary {
			continue
		}
		detail.AlternateISBNs = append(detail.AlternateISBNs, id.Identifier)
	}

	if info.PublishedDate != "" {
		detail.PublishedDate = stringPtr(info.PublishedDate)
	}
	if info.PageCount != nil && *info.PageCount > 0 {
		n := *info.PageCount
		detail.PageCount = &n
	}
	if len(info.Categories) > 0 {
		detail.Categories = append([]string(nil), info.Categories...)
	}
	if info.ImageLinks != nil && info.ImageLinks.Thumbnail != "" {
		detail.Thumbnail = stringPtr(info.ImageLinks.Thumbnail)
	}
	return detail
}

func pickISBN(ids []IndustryIdentifier) string {
	for _, id := range ids {
		if id.Type == "ISBN_13" && id.Identifier != "" {
			return id.Identifier
		}
	}
	for _, id := range ids {
		if id.Type == "ISBN_10" && id.Identifier != "" {
			return id.Identifier
		}
	}
	return ""
}

// CandidateReport describes how one candidate fared during selection.
type CandidateReport struct {
	Index             int    `yaml:"index"`
	Title             string `yaml:"title"`
	Authors           string `yaml:"authors"`
	DescriptionLength int    `yaml:"descriptionLength"`
	Identifiers       int    `yaml:"identifiers"`
	Preferred         bool   `yaml:"preferred"`
	Selected          bool   `yaml:"selected"`
	// TitleRank is the fuzzy edit distance from the requested title to the
	// candidate title, or -1 when the candidate does not contain it.
	TitleRank int `yaml:"titleRank"`
}

// Explanation is the diagnostic view of a single resolution.
type Explanation struct {
	Query      string            `yaml:"query"`
	Source     string            `yaml:"source"`
	Error      string            `yaml:"error,omitempty"`
	Fallback   bool              `yaml:"fallback"`
	Candidates []CandidateReport `yaml:"candidates"`
	Detail     BookDetail        `yaml:"detail"`
}

// Explain runs an uncached lookup and reports every candidate. It is meant
// for operators; page rendering uses Resolve.
func (r *Resolver) Explain(ctx context.Context, title, author string) Explanation {
	exp := Explanation{Query: BuildQuery(title, author)}
	if r.source == nil {
		exp.Error = "no metadata source configured"
		exp.Fallback = true
		exp.Detail = Fallback(title, author)
		return exp
	}
	exp.Source = r.source.Name()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	volumes, err := r.source.SearchVolumes(ctx, title, author, r.maxResults)
	if err != nil || len(volumes) == 0 {
		if err != nil {
			exp.Error = err.Error()
		}
		exp.Fallback = true
		exp.Detail = Fallback(title, author)
		return exp
	}

	selected := SelectCandidate(volumes)
	for i, v := range volumes {
		info := v.VolumeInfo
		exp.Candidates = append(exp.Candidates, CandidateReport{
			Index:             i,
			Title:             info.Title,
			Authors:           strings.Join(info.Authors, ", "),
			DescriptionLength: utf8.RuneCountInString(info.Description),
			Identifiers:       len(info.IndustryIdentifiers),
			Preferred:         IsPreferred(info),
			Selected:          i == selected,
			TitleRank:         fuzzy.RankMatchNormalizedFold(phrase(title), info.Title),
		})
	}
	exp.Detail = Normalize(volumes[selected].VolumeInfo, title, author)
	return exp
}

// String renders a one-line summary for logs.
func (e Explanation) String() string {
	if e.Fallback {
		return fmt.Sprintf("query=%s fallback=true error=%q", e.Query, e.Error)
	}
	return fmt.Sprintf("query=%s candidates=%d selected=%q", e.Query, len(e.Candidates), e.Detail.Title)
}
