/*
Package search scrapes result links from the DuckDuckGo HTML endpoint, which
tolerates automated clients.
*/
package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
)

const (
	DefaultEndpoint   = "https://html.duckduckgo.com/html/"
	DefaultMaxResults = 5
	DefaultTimeout    = 30 * time.Second

	FailedMarker    = "<error>Failed to perform search.</error>"
	NoResultsMarker = "<error>No results found.</error>"
)

type Outcome int

const (
	OutcomeLinks Outcome = iota
	OutcomeEmpty
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLinks:
		return "links"
	case OutcomeEmpty:
		return "empty"
	default:
		return "failed"
	}
}

/*
Result is what a search produced. Links is only populated for OutcomeLinks.
*/
type Result struct {
	Outcome Outcome
	Links   []string
}

/*
Lines renders the result for display. It is never empty: either the links or a
single error marker.
*/
func (r Result) Lines() []string {
	switch r.Outcome {
	case OutcomeLinks:
		if len(r.Links) > 0 {
			return r.Links
		}

		return []string{NoResultsMarker}
	case OutcomeEmpty:
		return []string{NoResultsMarker}
	default:
		return []string{FailedMarker}
	}
}

type Searcher struct {
	client    *http.Client
	endpoint  string
	userAgent string
	timeout   time.Duration
}

type Option func(*Searcher)

func WithEndpoint(endpoint string) Option {
	return func(s *Searcher) {
		s.endpoint = endpoint
	}
}

// WithTimeout bounds a single search request, reading the page included.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Searcher) {
		s.timeout = timeout
	}
}

func WithClient(client *http.Client) Option {
	return func(s *Searcher) {
		s.client = client
	}
}

func NewSearcher(userAgent string, opts ...Option) *Searcher {
	s := &Searcher{
		client:    &http.Client{},
		endpoint:  DefaultEndpoint,
		userAgent: userAgent,
		timeout:   DefaultTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// QueryURL builds the search URL. The query is escaped, so spaces become '+'.
func (s *Searcher) QueryURL(query string) string {
	return s.endpoint + "?q=" + url.QueryEscape(query)
}

/*
Search returns up to limit result links for query, in page order. Failures are
reported through the Outcome rather than as an error.
*/
func (s *Searcher) Search(ctx context.Context, query string, limit int) Result {
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger := log.FromContext(ctx).With("query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.QueryURL(query), nil)
	if err != nil {
		logger.Error("failed to build search request", "error", err)
		return Result{Outcome: OutcomeFailed}
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Error("search request failed", "error", err)
		return Result{Outcome: OutcomeFailed}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("search returned non-200", "status", resp.StatusCode)
		return Result{Outcome: OutcomeFailed}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		logger.Error("failed to parse search results", "error", err)
		return Result{Outcome: OutcomeFailed}
	}

	links := make([]string, 0, limit)

	doc.Find("a.result__a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if href, _ := a.Attr("href"); strings.Contains(href, "http") {
			links = append(links, href)
		}

		return len(links) < limit
	})

	if len(links) == 0 {
		return Result{Outcome: OutcomeEmpty}
	}

	return Result{Outcome: OutcomeLinks, Links: links}
}
