/*
Package readability isolates the main article of an HTML page and renders it
as Markdown with ATX headings.
*/
package readability

import (
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/charmbracelet/log"
	shiori "github.com/go-shiori/go-readability"
)

// ErrorMarker is returned in place of content when nothing readable was found.
const ErrorMarker = "<error>Page failed to be simplified from HTML</error>"

var markdown = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(
			commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
		),
	),
)

// Extract is ExtractFrom without a page URL.
func Extract(html string) string {
	return ExtractFrom(html, nil)
}

/*
ExtractFrom returns the readable part of html as Markdown. pageURL, when known,
is used to resolve relative links. It never fails: an empty or unparseable
article yields ErrorMarker.
*/
func ExtractFrom(html string, pageURL *url.URL) string {
	if pageURL == nil {
		pageURL = &url.URL{}
	}

	article, err := shiori.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		log.Debug("readability failed", "error", err)
		return ErrorMarker
	}

	if strings.TrimSpace(article.Content) == "" {
		return ErrorMarker
	}

	md, err := markdown.ConvertString(article.Content)
	if err != nil {
		log.Debug("markdown conversion failed", "error", err)
		return ErrorMarker
	}

	if strings.TrimSpace(md) == "" {
		return ErrorMarker
	}

	// The headline is not always part of the isolated content.
	if title := strings.TrimSpace(article.Title); title != "" && !strings.Contains(md, title) {
		md = "# " + title + "\n\n" + md
	}

	return md
}
