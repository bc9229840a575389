package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Loader returns the raw HTML served at a URL
type Loader interface {
	Load(ctx context.Context, url string) (string, error)
}

// HTMLPage implements the Page interface over a static HTML document.
// Content cannot change after load, so WaitFor checks presence once.
type HTMLPage struct {
	loader Loader
	doc    *goquery.Document
	url    string
}

// NewHTMLPage creates an HTMLPage that loads documents through the loader
func NewHTMLPage(loader Loader) *HTMLPage {
	return &HTMLPage{loader: loader}
}

// Navigate implements the Page interface
func (hp *HTMLPage) Navigate(ctx context.Context, url string) error {
	hp.url = url
	hp.doc = nil

	html, err := hp.loader.Load(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}
	hp.doc = doc
	return nil
}

// WaitFor implements the Page interface
func (hp *HTMLPage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if hp.doc == nil || hp.doc.Find(selector).Length() == 0 {
		return ErrNotReady
	}
	return nil
}

// URL implements the Page interface
func (hp *HTMLPage) URL() string {
	return hp.url
}

// Element implements the Element interface for the whole document
func (hp *HTMLPage) Element(selector string) (Element, error) {
	if hp.doc == nil {
		return nil, ErrElementNotFound
	}
	return NewSelectionElement(hp.doc.Selection).Element(selector)
}

// Elements implements the Element interface for the whole document
func (hp *HTMLPage) Elements(selector string) ([]Element, error) {
	if hp.doc == nil {
		return nil, ErrElementNotFound
	}
	return NewSelectionElement(hp.doc.Selection).Elements(selector)
}

// Text returns the text of the whole document
func (hp *HTMLPage) Text() (string, error) {
	if hp.doc == nil {
		return "", ErrElementNotFound
	}
	return hp.doc.Text(), nil
}

// Attribute is not meaningful for a document and always reports absence
func (hp *HTMLPage) Attribute(name string) (*string, error) {
	return nil, nil
}

// Close implements the Page interface
func (hp *HTMLPage) Close() error {
	hp.doc = nil
	return nil
}

// SelectionElement adapts a goquery selection to the Element interface
type SelectionElement struct {
	sel *goquery.Selection
}

// NewSelectionElement wraps a goquery selection
func NewSelectionElement(sel *goquery.Selection) *SelectionElement {
	return &SelectionElement{sel: sel}
}

// Element implements the Element interface
func (se *SelectionElement) Element(selector string) (Element, error) {
	found := se.sel.Find(selector)
	if found.Length() == 0 {
		return nil, ErrElementNotFound
	}
	return &SelectionElement{sel: found.First()}, nil
}

// Elements implements the Element interface
func (se *SelectionElement) Elements(selector string) ([]Element, error) {
	var elements []Element
	se.sel.Find(selector).Each(func(i int, s *goquery.Selection) {
		elements = append(elements, &SelectionElement{sel: s})
	})
	return elements, nil
}

// Text implements the Element interface
func (se *SelectionElement) Text() (string, error) {
	return se.sel.Text(), nil
}

// Attribute implements the Element interface
func (se *SelectionElement) Attribute(name string) (*string, error) {
	value, ok := se.sel.Attr(name)
	if !ok {
		return nil, nil
	}
	return &value, nil
}

// MemoryLoader serves HTML from an in-memory map keyed by URL
type MemoryLoader map[string]string

// Load implements the Loader interface
func (ml MemoryLoader) Load(ctx context.Context, url string) (string, error) {
	html, ok := ml[url]
	if !ok {
		return "", fmt.Errorf("no content for %s", url)
	}
	return html, nil
}
