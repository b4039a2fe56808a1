// Package dom models a rendered page as a set of document-like roots: the
// main document, shadow sub-trees attached to elements, and embedded frame
// documents that were readable when the page was captured.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrFrameInaccessible is returned for frames whose document could not be
// read (cross-origin or not loaded). Callers skip such frames.
var ErrFrameInaccessible = errors.New("frame document not accessible")

type Kind int

const (
	KindDocument Kind = iota
	KindShadow
	KindFrame
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindShadow:
		return "shadow"
	case KindFrame:
		return "frame"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Root is one independently queryable document-like unit.
type Root struct {
	kind Kind
	node *html.Node
	doc  *goquery.Document
}

func newRoot(kind Kind, node *html.Node) *Root {
	return &Root{kind: kind, node: node, doc: goquery.NewDocumentFromNode(node)}
}

func (r *Root) Kind() Kind { return r.kind }

// Node is the root's identity.
func (r *Root) Node() *html.Node { return r.node }

// Find runs a CSS selector against this root only.
func (r *Root) Find(selector string) *goquery.Selection {
	return r.doc.Find(selector)
}

// Title is the text of the root's <title> element, if any.
func (r *Root) Title() string {
	return strings.TrimSpace(r.doc.Find("title").First().Text())
}

// Tree owns the roots of one captured page and the links between them.
type Tree struct {
	main    *Root
	shadows map[*html.Node]*Root
	frames  map[*html.Node]*Root
}

// Parse reads an HTML page. Declarative shadow roots are detached from their
// hosts so that each root only ever sees its own content.
func Parse(r io.Reader) (*Tree, error) {
	node, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	t := &Tree{
		shadows: make(map[*html.Node]*Root),
		frames:  make(map[*html.Node]*Root),
	}
	t.detachShadows(node)
	t.main = newRoot(KindDocument, node)
	return t, nil
}

func ParseString(s string) (*Tree, error) {
	return Parse(strings.NewReader(s))
}

func (t *Tree) Main() *Root { return t.main }

// ShadowRoot returns the shadow root attached to host.
func (t *Tree) ShadowRoot(host *html.Node) (*Root, bool) {
	r, ok := t.shadows[host]
	return r, ok
}

// FrameDocument returns the document embedded by an iframe element. Only
// srcdoc frames are readable; the parsed document is cached per element.
func (t *Tree) FrameDocument(frame *html.Node) (*Root, error) {
	if r, ok := t.frames[frame]; ok {
		return r, nil
	}
	if frame.Type != html.ElementNode || frame.DataAtom != atom.Iframe {
		return nil, fmt.Errorf("<%s> is not a frame", frame.Data)
	}

	srcdoc, ok := attr(frame, "srcdoc")
	if !ok {
		return nil, ErrFrameInaccessible
	}
	node, err := html.Parse(strings.NewReader(srcdoc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameInaccessible, err)
	}
	t.detachShadows(node)

	r := newRoot(KindFrame, node)
	t.frames[frame] = r
	return r, nil
}

func (t *Tree) detachShadows(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		t.detachShadows(c)
		if n.Type == html.ElementNode && isShadowTemplate(c) {
			n.RemoveChild(c)
			if _, taken := t.shadows[n]; !taken {
				t.shadows[n] = newRoot(KindShadow, fragment(c))
			}
		}
		c = next
	}
}

func isShadowTemplate(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Template {
		return false
	}
	if _, ok := attr(n, "shadowrootmode"); ok {
		return true
	}
	_, ok := attr(n, "shadowroot")
	return ok
}

// fragment moves the template's children under a fresh document node.
func fragment(tmpl *html.Node) *html.Node {
	frag := &html.Node{Type: html.DocumentNode}
	for c := tmpl.FirstChild; c != nil; {
		next := c.NextSibling
		tmpl.RemoveChild(c)
		frag.AppendChild(c)
		c = next
	}
	return frag
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
