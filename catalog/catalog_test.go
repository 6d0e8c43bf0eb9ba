package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/samplelist.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" && a.Val == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func parse(t *testing.T, m *Menu) *html.Node {
	t.Helper()
	var buf bytes.Buffer
	if err := m.Render(&buf); err != nil {
		t.Fatal(err)
	}
	doc, err := html.Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestFetchAndAutoLoadFirst(t *testing.T) {
	srv := feedServer(t, `[{"asset":"x.glb","title":"T","description":"D","link":"http://l"}]`)

	scenes, err := Fetch(context.Background(), srv.Client(), srv.URL+"/samplelist.json")
	if err != nil {
		t.Fatal(err)
	}
	var loaded []string
	m := NewMenu(scenes, func(asset string) { loaded = append(loaded, asset) }, quietLogger())
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 || loaded[0] != "x.glb" {
		t.Fatalf("loads: expected [x.glb], got %v", loaded)
	}

	doc := parse(t, m)
	items := findAll(doc, "li")
	if len(items) != 1 {
		t.Fatalf("li count: expected 1, got %d", len(items))
	}
	if !hasClass(items[0], "selectedScene") {
		t.Error("expected the first entry selected")
	}

	spans := findAll(items[0], "span")
	if len(spans) != 2 || !hasClass(spans[0], "sceneSelectTitle") || textOf(spans[0]) != "T" {
		t.Errorf("title span: got %d spans", len(spans))
	}
	if len(spans) == 2 && (!hasClass(spans[1], "sceneSelectDescription") || textOf(spans[1]) != "D") {
		t.Error("description span mismatch")
	}
	links := findAll(items[0], "a")
	if len(links) != 1 || attr(links[0], "href") != "http://l" || !hasClass(links[0], "sceneSelectLink") {
		t.Errorf("link: expected href http://l, got %v", links)
	}
}

func TestFetchErrors(t *testing.T) {
	srv := feedServer(t, `not json`)

	if _, err := Fetch(context.Background(), srv.Client(), srv.URL+"/missing.json"); err == nil {
		t.Error("expected an error for 404")
	}
	if _, err := Fetch(context.Background(), srv.Client(), srv.URL+"/samplelist.json"); err == nil {
		t.Error("expected a decode error")
	}
}

func TestSelectMovesSelection(t *testing.T) {
	var loaded []string
	m := NewMenu([]SceneInfo{
		{Asset: "a.glb", Title: "A"},
		{Asset: "b.glb", Title: "B"},
		{Asset: "c.glb", Title: "C"},
	}, func(asset string) { loaded = append(loaded, asset) }, quietLogger())

	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if err := m.Select(2); err != nil {
		t.Fatal(err)
	}
	if m.Selected() != 2 {
		t.Errorf("selected: expected 2, got %d", m.Selected())
	}

	selected := 0
	for _, li := range findAll(parse(t, m), "li") {
		if hasClass(li, "selectedScene") {
			selected++
		}
	}
	if selected != 1 {
		t.Errorf("selected entries: expected 1, got %d", selected)
	}
	if strings.Join(loaded, ",") != "a.glb,c.glb" {
		t.Errorf("loads: got %v", loaded)
	}
	if err := m.Select(3); err == nil {
		t.Error("expected out of range error")
	}
}

func TestStartEmpty(t *testing.T) {
	m := NewMenu(nil, func(string) {}, quietLogger())
	if err := m.Start(); !errors.Is(err, ErrEmptyFeed) {
		t.Errorf("expected ErrEmptyFeed, got %v", err)
	}
}

func TestServeHTTP(t *testing.T) {
	var loaded []string
	m := NewMenu([]SceneInfo{
		{Asset: "a.glb", Title: "A"},
		{Asset: "b.glb", Title: "B"},
	}, func(asset string) { loaded = append(loaded, asset) }, quietLogger())

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `id="sceneSelect"`) {
		t.Errorf("page: status %d body %q", rec.Code, rec.Body.String())
	}

	form := url.Values{"index": {"1"}}
	req := httptest.NewRequest(http.MethodPost, "/select", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("select: expected 303, got %d", rec.Code)
	}
	if len(loaded) != 1 || loaded[0] != "b.glb" {
		t.Errorf("loads: expected [b.glb], got %v", loaded)
	}

	rec = httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/select", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /select: expected 405, got %d", rec.Code)
	}
}
