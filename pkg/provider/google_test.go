package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func newGemini(t *testing.T, reply string, paths chan<- string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		paths <- r.URL.Path + " " + string(body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
}

func TestGenerate(t *testing.T) {
	Convey("Given a Gemini endpoint that answers", t, func() {
		paths := make(chan string, 1)
		srv := newGemini(t,
			`{"candidates":[{"content":{"role":"model","parts":[{"text":"ATS score: "},{"text":"82/100"}]}}]}`,
			paths,
		)
		defer srv.Close()

		prvdr, err := NewGoogleProvider(context.Background(), "test-key",
			WithGoogleBaseURL(srv.URL+"/"),
			WithGoogleModel("gemini-test"),
		)
		So(err, ShouldBeNil)

		text, err := prvdr.Generate(context.Background(), "score this resume")

		Convey("Then the text parts are joined", func() {
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "ATS score: 82/100")
		})

		Convey("Then the prompt went to the configured model", func() {
			req := <-paths
			So(req, ShouldContainSubstring, "gemini-test:generateContent")

			var sent struct {
				Contents []struct {
					Role  string `json:"role"`
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"contents"`
			}
			So(json.Unmarshal([]byte(req[strings.Index(req, " ")+1:]), &sent), ShouldBeNil)
			So(sent.Contents, ShouldHaveLength, 1)
			So(sent.Contents[0].Parts[0].Text, ShouldEqual, "score this resume")
		})
	})

	Convey("Given a Gemini endpoint without candidates", t, func() {
		srv := newGemini(t, `{"candidates":[]}`, make(chan string, 1))
		defer srv.Close()

		prvdr, err := NewGoogleProvider(context.Background(), "test-key", WithGoogleBaseURL(srv.URL+"/"))
		So(err, ShouldBeNil)

		_, err = prvdr.Generate(context.Background(), "hello")

		Convey("Then no content is an error", func() {
			So(err, ShouldEqual, ErrNoContent)
		})
	})
}
