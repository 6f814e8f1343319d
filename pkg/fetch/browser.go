package fetch

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/theapemachine/jobfinder-mcp/pkg/errors"
)

/*
BrowserRenderer loads pages in a headless Chromium so that postings rendered
by JavaScript still produce content. Every call launches its own browser.
*/
type BrowserRenderer struct {
	launch func(ctx context.Context) (string, error)
}

func NewBrowserRenderer() *BrowserRenderer {
	return &BrowserRenderer{
		launch: func(ctx context.Context) (string, error) {
			return launcher.New().Headless(true).Leakless(true).Context(ctx).Launch()
		},
	}
}

// Render navigates to pageURL, waits for the load event and returns the DOM.
func (br *BrowserRenderer) Render(
	ctx context.Context, pageURL, userAgent string,
) (*Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, &errors.FetchError{URL: pageURL, Cause: err}
	}

	wsURL, err := br.launch(ctx)
	if err != nil {
		return nil, &errors.FetchError{URL: pageURL, Cause: err}
	}

	browser := rod.New().Context(ctx).ControlURL(wsURL)
	if err := browser.Connect(); err != nil {
		return nil, &errors.FetchError{URL: pageURL, Cause: err}
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, &errors.FetchError{URL: pageURL, Cause: err}
	}

	if userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
			return nil, &errors.FetchError{URL: pageURL, Cause: err}
		}
	}

	status := http.StatusOK
	waitDocument := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}

		status = e.Response.Status
		return true
	})

	if err := page.Navigate(pageURL); err != nil {
		return nil, &errors.FetchError{URL: pageURL, Cause: err}
	}

	waitDocument()

	if status >= http.StatusBadRequest {
		return nil, &errors.FetchError{URL: pageURL, StatusCode: status}
	}

	if err := page.WaitLoad(); err != nil {
		return nil, &errors.FetchError{URL: pageURL, Cause: err}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &errors.FetchError{URL: pageURL, Cause: err}
	}

	if info, err := page.Info(); err == nil {
		if final, err := url.Parse(info.URL); err == nil {
			u = final
		}
	}

	return &Page{
		URL:         u,
		ContentType: "text/html",
		Body:        html,
	}, nil
}
