package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/theapemachine/jobfinder-mcp/pkg/errors"
	"github.com/theapemachine/jobfinder-mcp/pkg/fetch"
	"github.com/theapemachine/jobfinder-mcp/pkg/search"
)

// Fetcher is the part of fetch.Fetcher the dispatcher needs.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL, userAgent string, forceRaw bool) (*fetch.Result, error)
}

// Searcher is the part of search.Searcher the dispatcher needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) search.Result
}

// Request is one job_finder call.
type Request struct {
	Goal        string
	Description string
	URL         string
	Raw         bool
}

type Route int

const (
	RouteAnalyze Route = iota
	RouteFetch
	RouteSearch
	RouteInvalid
)

func (r Route) String() string {
	return [...]string{"analyze", "fetch", "search", "invalid"}[r]
}

// Plain substring matches, so "findable" counts as a search.
var searchTriggers = []string{"look for", "find"}

/*
Route picks the pipeline for the request. A description wins over a URL, a URL
wins over a goal that reads like a search.
*/
func (r Request) Route() Route {
	switch {
	case r.Description != "":
		return RouteAnalyze
	case r.URL != "":
		return RouteFetch
	case looksLikeSearch(r.Goal):
		return RouteSearch
	default:
		return RouteInvalid
	}
}

func looksLikeSearch(goal string) bool {
	goal = strings.ToLower(goal)

	for _, trigger := range searchTriggers {
		if strings.Contains(goal, trigger) {
			return true
		}
	}

	return false
}

/*
Dispatcher runs a Request through the pipeline its Route selects and formats
the reply.
*/
type Dispatcher struct {
	fetcher    Fetcher
	searcher   Searcher
	userAgent  string
	maxResults int
}

func NewDispatcher(fetcher Fetcher, searcher Searcher, userAgent string, maxResults int) *Dispatcher {
	return &Dispatcher{
		fetcher:    fetcher,
		searcher:   searcher,
		userAgent:  userAgent,
		maxResults: maxResults,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (string, error) {
	route := req.Route()
	log.FromContext(ctx).Debug("dispatching", "route", route)

	switch route {
	case RouteAnalyze:
		return fmt.Sprintf(
			"📝 **Job Description Analysis**\n\n"+
				"---\n%s\n---\n\n"+
				"User Goal: **%s**\n\n"+
				"💡 Suggestions:\n- Tailor your resume.\n- Evaluate skill match.\n- Consider applying if relevant.",
			strings.TrimSpace(req.Description), req.Goal,
		), nil
	case RouteFetch:
		res, err := d.fetcher.Fetch(ctx, req.URL, d.userAgent, req.Raw)
		if err != nil {
			return "", errors.Internal(err)
		}

		return fmt.Sprintf(
			"🔗 **Fetched Job Posting from URL**: %s\n\n---\n%s\n---\n\nUser Goal: **%s**",
			req.URL, strings.TrimSpace(res.Content), req.Goal,
		), nil
	case RouteSearch:
		lines := d.searcher.Search(ctx, req.Goal, d.maxResults).Lines()

		var b strings.Builder
		fmt.Fprintf(&b, "🔍 **Search Results for**: _%s_\n\n", req.Goal)

		for i, link := range lines {
			if i > 0 {
				b.WriteString("\n")
			}

			b.WriteString("- " + link)
		}

		return b.String(), nil
	default:
		return "", errors.ErrInvalidParams.WithMessagef(
			"Please provide either a job description, a job URL, or a search query in user_goal.",
		)
	}
}

// JobFinderTool exposes the Dispatcher as the job_finder MCP tool.
type JobFinderTool struct {
	dispatcher *Dispatcher
}

func NewJobFinderTool(dispatcher *Dispatcher) *JobFinderTool {
	return &JobFinderTool{dispatcher: dispatcher}
}

var jobFinderDescription = RichToolDescription{
	Description: "Smart job tool: analyze descriptions, fetch URLs, or search jobs based on free text.",
	UseWhen:     "Use this to evaluate job descriptions or search for jobs using freeform goals.",
	SideEffects: "Returns insights, fetched job descriptions, or relevant job links.",
}

func (jt *JobFinderTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"job_finder",
		mcp.WithDescription(jobFinderDescription.String()),
		mcp.WithString("user_goal",
			mcp.Description("The user's goal (can be a description, intent, or freeform query)"),
			mcp.Required(),
		),
		mcp.WithString("job_description",
			mcp.Description("Full job description text, if available."),
		),
		mcp.WithString("job_url",
			mcp.Description("A URL to fetch a job description from."),
		),
		mcp.WithBoolean("raw",
			mcp.Description("Return raw HTML content if True"),
			mcp.DefaultBool(false),
		),
	)
}

func (jt *JobFinderTool) Handle(
	ctx context.Context, req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	goal, err := req.RequireString("user_goal")
	if err != nil {
		return nil, errors.ErrInvalidParams.WithMessagef("%v", err)
	}

	request := Request{
		Goal:        goal,
		Description: req.GetString("job_description", ""),
		URL:         req.GetString("job_url", ""),
		Raw:         req.GetBool("raw", false),
	}

	if request.URL != "" {
		if err := validateURL(request.URL); err != nil {
			return nil, err
		}
	}

	reply, err := jt.dispatcher.Dispatch(ctx, request)
	if err != nil {
		return nil, err
	}

	return mcp.NewToolResultText(reply), nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.ErrInvalidParams.WithMessagef("job_url must be an absolute http(s) URL: %q", raw)
	}

	return nil
}
