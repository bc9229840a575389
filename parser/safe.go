package parser

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"provider-scraper/fetcher"
)

// Text returns the trimmed text of the first element under scope matching
// selector. Any lookup failure yields "".
func Text(scope fetcher.Element, selector string) string {
	el := find(scope, selector)
	if el == nil {
		return ""
	}
	return TextOf(el)
}

// Attr returns the named attribute of the first element under scope matching
// selector. Any lookup failure or a missing attribute yields "".
func Attr(scope fetcher.Element, selector, name string) string {
	el := find(scope, selector)
	if el == nil {
		return ""
	}
	return AttrOf(el, name)
}

// TextOf returns the trimmed text of el itself, or "" on failure
func TextOf(el fetcher.Element) (text string) {
	defer contain("text", &text)
	if el == nil {
		return ""
	}
	raw, err := el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(raw)
}

// AttrOf returns the named attribute of el itself, or "" on failure
func AttrOf(el fetcher.Element, name string) (value string) {
	defer contain("attribute "+name, &value)
	if el == nil {
		return ""
	}
	attr, err := el.Attribute(name)
	if err != nil || attr == nil {
		return ""
	}
	return strings.TrimSpace(*attr)
}

// All returns every element under scope matching selector, or nil on failure
func All(scope fetcher.Element, selector string) (elements []fetcher.Element) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered panic while looking up %q: %v\n", selector, r)
			elements = nil
		}
	}()
	if scope == nil || selector == "" {
		return nil
	}
	found, err := scope.Elements(selector)
	if err != nil {
		return nil
	}
	return found
}

func find(scope fetcher.Element, selector string) (el fetcher.Element) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered panic while looking up %q: %v\n", selector, r)
			el = nil
		}
	}()
	if scope == nil || selector == "" {
		return nil
	}
	found, err := scope.Element(selector)
	if err != nil {
		return nil
	}
	return found
}

// contain turns a panic raised by a backend read into an empty result
func contain(what string, out *string) {
	if r := recover(); r != nil {
		log.Printf("Recovered panic while reading %s: %v\n", what, r)
		*out = ""
	}
}

var digitRun = regexp.MustCompile(`\d+`)

// ExtractCount returns the first run of decimal digits in text as an integer,
// or 0 when there is none. "4.8 stars, 123 ratings" yields 4.
func ExtractCount(text string) int {
	run := digitRun.FindString(text)
	if run == "" {
		return 0
	}
	n, err := strconv.Atoi(run)
	if err != nil {
		return 0
	}
	return n
}

// normalizeWhitespace replaces unicode whitespace with regular spaces and
// collapses runs of spaces
func normalizeWhitespace(text string) string {
	normalized := strings.Builder{}
	for _, r := range text {
		if unicode.IsSpace(r) {
			normalized.WriteRune(' ')
		} else {
			normalized.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(normalized.String()), " ")
}
