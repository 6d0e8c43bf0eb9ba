package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	classTitle       = "sceneSelectTitle"
	classLink        = "sceneSelectLink"
	classDescription = "sceneSelectDescription"
	classSelected    = "selectedScene"
	linkText         = "🔗"
)

// Menu is the scene selection list. Exactly one entry is selected once Start
// has run; selecting an entry hands its asset to the loader. It is safe for
// concurrent use.
type Menu struct {
	load   func(asset string)
	logger *log.Logger

	mu       sync.Mutex
	scenes   []SceneInfo
	selected int
}

// NewMenu builds a menu over scenes. load is called with the asset of each
// selected entry and must not block.
func NewMenu(scenes []SceneInfo, load func(asset string), logger *log.Logger) *Menu {
	if logger == nil {
		logger = log.Default()
	}
	return &Menu{
		load:     load,
		logger:   logger,
		scenes:   append([]SceneInfo(nil), scenes...),
		selected: -1,
	}
}

// Start selects the first entry.
func (m *Menu) Start() error {
	if m.Len() == 0 {
		return ErrEmptyFeed
	}
	return m.Select(0)
}

// Select marks entry i as the only selected one and loads its asset.
func (m *Menu) Select(i int) error {
	m.mu.Lock()
	if i < 0 || i >= len(m.scenes) {
		m.mu.Unlock()
		return fmt.Errorf("catalog: select %d: out of range [0,%d)", i, len(m.scenes))
	}
	m.selected = i
	si := m.scenes[i]
	m.mu.Unlock()

	m.logger.Printf("[catalog] selected %q (%s)", si.Title, si.Asset)
	m.load(si.Asset)
	return nil
}

// Selected returns the index of the selected entry, or -1.
func (m *Menu) Selected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

func (m *Menu) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scenes)
}

func (m *Menu) Scenes() []SceneInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SceneInfo(nil), m.scenes...)
}

// Render writes the list markup: one li per scene holding the title, a link
// and the description.
func (m *Menu) Render(w io.Writer) error {
	return html.Render(w, m.list())
}

func (m *Menu) list() *html.Node {
	m.mu.Lock()
	defer m.mu.Unlock()

	ul := element(atom.Ul)
	for i, si := range m.scenes {
		li := element(atom.Li)
		if i == m.selected {
			li.Attr = append(li.Attr, html.Attribute{Key: "class", Val: classSelected})
		}

		title := element(atom.Span, html.Attribute{Key: "class", Val: classTitle},
			html.Attribute{Key: "data-index", Val: strconv.Itoa(i)})
		title.AppendChild(text(si.Title))

		link := element(atom.A, html.Attribute{Key: "href", Val: si.Link},
			html.Attribute{Key: "class", Val: classLink})
		link.AppendChild(text(linkText))

		desc := element(atom.Span, html.Attribute{Key: "class", Val: classDescription})
		desc.AppendChild(text(si.Description))

		li.AppendChild(title)
		li.AppendChild(link)
		li.AppendChild(desc)
		ul.AppendChild(li)
	}
	return ul
}

const pageScript = `document.querySelectorAll(".sceneSelectTitle").forEach(function (el) {
  el.onclick = function () {
    fetch("/select", {method: "POST", body: new URLSearchParams({index: el.dataset.index})})
      .then(function () { location.reload(); });
  };
});`

// Page writes a complete HTML document around the list.
func (m *Menu) Page(w io.Writer) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	head := element(atom.Head)
	title := element(atom.Title)
	title.AppendChild(text("Scenes"))
	head.AppendChild(title)
	root.AppendChild(head)

	body := element(atom.Body)
	container := element(atom.Div, html.Attribute{Key: "id", Val: "sceneSelect"})
	container.AppendChild(m.list())
	body.AppendChild(container)
	script := element(atom.Script)
	script.AppendChild(text(pageScript))
	body.AppendChild(script)
	root.AppendChild(body)
	doc.AppendChild(root)

	return html.Render(w, doc)
}

// ServeHTTP serves the page on GET /, the entries on GET /scenes.json and
// selects an entry on POST /select with form value index.
func (m *Menu) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/" && r.Method == http.MethodGet:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := m.Page(w); err != nil {
			m.logger.Printf("[catalog] render page: %v", err)
		}
	case r.URL.Path == "/scenes.json" && r.Method == http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(m.Scenes()); err != nil {
			m.logger.Printf("[catalog] encode scenes: %v", err)
		}
	case r.URL.Path == "/select" && r.Method == http.MethodPost:
		i, err := strconv.Atoi(r.FormValue("index"))
		if err != nil {
			http.Error(w, "bad index", http.StatusBadRequest)
			return
		}
		if err := m.Select(i); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case r.URL.Path == "/" || r.URL.Path == "/scenes.json" || r.URL.Path == "/select":
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
