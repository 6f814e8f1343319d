/*
Package fetch retrieves a page, classifies it by content type and simplifies
HTML to Markdown.
*/
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/jobfinder-mcp/pkg/errors"
	"github.com/theapemachine/jobfinder-mcp/pkg/readability"
)

const (
	// DefaultTimeout bounds a single fetch, redirects included.
	DefaultTimeout = 30 * time.Second
	// MaxBodySize caps how much of a response body is read.
	MaxBodySize = 10 * 1024 * 1024
)

type Kind string

const (
	KindMarkdown Kind = "markdown"
	KindRaw      Kind = "raw"
)

// Result is the outcome of a successful fetch.
type Result struct {
	Content string `json:"content"`
	Kind    Kind   `json:"kind"`
	Note    string `json:"note,omitempty"`
}

// Page is a response as the backends see it, before classification.
type Page struct {
	URL         *url.URL
	ContentType string
	Body        string
}

// Renderer is a fetch backend other than plain HTTP.
type Renderer interface {
	Render(ctx context.Context, pageURL, userAgent string) (*Page, error)
}

/*
Fetcher performs the GET, checks the status and hands HTML to the readability
extractor. It keeps no state between calls.
*/
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	renderer Renderer
}

type Option func(*Fetcher)

func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithRenderer replaces the HTTP backend, e.g. with a headless browser.
func WithRenderer(renderer Renderer) Option {
	return func(f *Fetcher) {
		f.renderer = renderer
	}
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{},
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

/*
Fetch retrieves pageURL with the given identity. HTML is simplified unless
forceRaw is set; everything else comes back raw with a note saying why.
Transport failures and statuses >= 400 are returned as *errors.FetchError.
*/
func (f *Fetcher) Fetch(
	ctx context.Context, pageURL, userAgent string, forceRaw bool,
) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	log.FromContext(ctx).Info("fetching", "url", pageURL, "raw", forceRaw)

	var (
		page *Page
		err  error
	)

	if f.renderer != nil {
		page, err = f.renderer.Render(ctx, pageURL, userAgent)
	} else {
		page, err = f.get(ctx, pageURL, userAgent)
	}

	if err != nil {
		return nil, err
	}

	if strings.Contains(page.ContentType, "text/html") && !forceRaw {
		return &Result{
			Content: readability.ExtractFrom(page.Body, page.URL),
			Kind:    KindMarkdown,
		}, nil
	}

	return &Result{
		Content: page.Body,
		Kind:    KindRaw,
		Note: fmt.Sprintf(
			"Content type %s cannot be simplified to markdown, but here is the raw content:\n",
			page.ContentType,
		),
	}, nil
}

func (f *Fetcher) get(ctx context.Context, pageURL, userAgent string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &errors.FetchError{URL: pageURL, Cause: err}
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &errors.FetchError{URL: pageURL, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &errors.FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, &errors.FetchError{URL: pageURL, Cause: err}
	}

	return &Page{
		URL:         resp.Request.URL,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(body),
	}, nil
}
