package fetch

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/jobfinder-mcp/pkg/errors"
	"github.com/theapemachine/jobfinder-mcp/pkg/readability"
)

const userAgent = "Puch/1.0 (Autonomous)"

var body = strings.Repeat(
	"Join our platform team to design, build and operate the services that "+
		"power job matching for millions of candidates every single day. ", 5,
)

var jobPage = `<html><head><title>Job 42</title></head><body>
<article><h1>Data Engineer</h1><p>` + body + `</p><p>` + body + `</p></article>
</body></html>`

func newUpstream(hits *int32, agents chan<- string) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/job/42", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if agents != nil {
			agents <- r.Header.Get("User-Agent")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(jobPage))
	})

	mux.HandleFunc("/job/42.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Data Engineer"}`))
	})

	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/job/42", http.StatusFound)
	})

	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>not here</html>", http.StatusNotFound)
	})

	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	return httptest.NewServer(mux)
}

func TestFetch(t *testing.T) {
	Convey("Given an upstream server", t, func() {
		var hits int32
		agents := make(chan string, 4)
		srv := newUpstream(&hits, agents)
		defer srv.Close()

		f := NewFetcher()
		ctx := context.Background()

		Convey("When an HTML page is fetched", func() {
			res, err := f.Fetch(ctx, srv.URL+"/job/42", userAgent, false)

			Convey("Then it is simplified to Markdown", func() {
				So(err, ShouldBeNil)
				So(res.Kind, ShouldEqual, KindMarkdown)
				So(res.Note, ShouldBeEmpty)
				So(res.Content, ShouldNotEqual, readability.ErrorMarker)
				So(res.Content, ShouldContainSubstring, "Join our platform team")
				So(res.Content, ShouldNotContainSubstring, "<article>")
			})

			Convey("Then the fixed identity was sent", func() {
				So(<-agents, ShouldEqual, userAgent)
			})
		})

		Convey("When the call carries a request logger", func() {
			var out bytes.Buffer
			logger := log.New(&out).With("request", "req-1")

			_, err := f.Fetch(log.WithContext(ctx, logger), srv.URL+"/job/42", userAgent, false)

			Convey("Then the fetch logs through it", func() {
				So(err, ShouldBeNil)
				So(out.String(), ShouldContainSubstring, "fetching")
				So(out.String(), ShouldContainSubstring, "request=req-1")
			})
		})

		Convey("When raw mode is forced", func() {
			res, err := f.Fetch(ctx, srv.URL+"/job/42", userAgent, true)

			Convey("Then the HTML comes back untouched with a note", func() {
				So(err, ShouldBeNil)
				So(res.Kind, ShouldEqual, KindRaw)
				So(res.Content, ShouldEqual, jobPage)
				So(res.Note, ShouldContainSubstring, "cannot be simplified to markdown")
			})
		})

		Convey("When a non-HTML document is fetched", func() {
			res, err := f.Fetch(ctx, srv.URL+"/job/42.json", userAgent, false)

			Convey("Then the raw payload is returned with a note", func() {
				So(err, ShouldBeNil)
				So(res.Kind, ShouldEqual, KindRaw)
				So(res.Content, ShouldEqual, `{"title":"Data Engineer"}`)
				So(res.Note, ShouldStartWith, "Content type application/json cannot be simplified")
			})
		})

		Convey("When the page redirects", func() {
			res, err := f.Fetch(ctx, srv.URL+"/moved", userAgent, false)

			Convey("Then the redirect is followed", func() {
				So(err, ShouldBeNil)
				So(res.Kind, ShouldEqual, KindMarkdown)
				So(res.Content, ShouldContainSubstring, "Join our platform team")
			})
		})

		Convey("When the server answers 404", func() {
			res, err := f.Fetch(ctx, srv.URL+"/gone", userAgent, false)

			Convey("Then a FetchError carries the status and no content", func() {
				So(res, ShouldBeNil)

				var fetchErr *errors.FetchError
				So(stderrors.As(err, &fetchErr), ShouldBeTrue)
				So(fetchErr.StatusCode, ShouldEqual, http.StatusNotFound)
				So(err.Error(), ShouldContainSubstring, "status code 404")
			})
		})

		Convey("When the same page is fetched twice", func() {
			first, err := f.Fetch(ctx, srv.URL+"/job/42", userAgent, false)
			So(err, ShouldBeNil)
			second, err := f.Fetch(ctx, srv.URL+"/job/42", userAgent, false)
			So(err, ShouldBeNil)

			Convey("Then both calls reach the server and agree", func() {
				So(atomic.LoadInt32(&hits), ShouldEqual, 2)
				So(second, ShouldResemble, first)
			})
		})
	})

	Convey("Given a slow upstream", t, func() {
		srv := newUpstream(new(int32), nil)
		defer srv.Close()

		f := NewFetcher(WithTimeout(50 * time.Millisecond))

		Convey("Then the timeout surfaces as a FetchError with a cause", func() {
			_, err := f.Fetch(context.Background(), srv.URL+"/slow", userAgent, false)

			var fetchErr *errors.FetchError
			So(stderrors.As(err, &fetchErr), ShouldBeTrue)
			So(fetchErr.Cause, ShouldNotBeNil)
			So(stderrors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})

	Convey("Given an unreachable host", t, func() {
		srv := newUpstream(new(int32), nil)
		target := srv.URL + "/job/42"
		srv.Close()

		Convey("Then the transport failure is reported", func() {
			_, err := NewFetcher().Fetch(context.Background(), target, userAgent, false)

			var fetchErr *errors.FetchError
			So(stderrors.As(err, &fetchErr), ShouldBeTrue)
			So(fetchErr.Cause, ShouldNotBeNil)
			So(fetchErr.StatusCode, ShouldEqual, 0)
		})
	})
}

type stubRenderer struct {
	page *Page
	err  error
}

func (s stubRenderer) Render(context.Context, string, string) (*Page, error) {
	return s.page, s.err
}

func TestFetchWithRenderer(t *testing.T) {
	Convey("Given a renderer backend", t, func() {
		f := NewFetcher(WithRenderer(stubRenderer{
			page: &Page{ContentType: "text/html", Body: jobPage},
		}))

		Convey("Then rendered HTML goes through the extractor", func() {
			res, err := f.Fetch(context.Background(), "https://example.com/job/42", userAgent, false)
			So(err, ShouldBeNil)
			So(res.Kind, ShouldEqual, KindMarkdown)
			So(res.Content, ShouldContainSubstring, "Join our platform team")
		})
	})

	Convey("Given a failing renderer", t, func() {
		f := NewFetcher(WithRenderer(stubRenderer{
			err: &errors.FetchError{URL: "https://example.com", StatusCode: 500},
		}))

		Convey("Then its error is returned as is", func() {
			_, err := f.Fetch(context.Background(), "https://example.com", userAgent, false)
			So(err.Error(), ShouldContainSubstring, "status code 500")
		})
	})
}
