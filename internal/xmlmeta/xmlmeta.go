// Package xmlmeta extracts the content metrics reported for JATS/SciELO
// article XML files: text size, document type and DOI.
package xmlmeta

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

// Metrics holds the values derived from one XML document. When IsArticle
// is false the document root is not <article> and every field is empty.
type Metrics struct {
	IsArticle bool
	TextSize  int
	DocType   string
	DOI       string
}

// Fields renders the metrics as the three xml_* report columns.
func (m Metrics) Fields() []string {
	if !m.IsArticle {
		return []string{"", "", ""}
	}
	return []string{strconv.Itoa(m.TextSize), m.DocType, m.DOI}
}

// element tracks the leading text of one open element. The leading text is
// the character data before the element's first child element.
type element struct {
	text    bytes.Buffer
	open    bool // still collecting leading text
	isDOIID bool // article-id with an attribute valued "doi"
}

// Inspect parses r and computes its Metrics. Declared non-UTF-8 encodings
// are transcoded. Any well-formedness error aborts the inspection, including
// text outside the root element and unbound namespace prefixes.
func Inspect(r io.Reader) (Metrics, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		m       Metrics
		stack   []*element // open elements, tracked for articles only
		scopes  [][]string // namespace URIs declared per open element
		total   int
		depth   int
		started bool // root element seen
	)

	// flush closes the leading text of the innermost open element and adds
	// its trimmed length to the running total.
	flush := func() {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		if !top.open {
			return
		}
		top.open = false
		total += len(strings.TrimSpace(top.text.String()))
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Metrics{}, fmt.Errorf("failed to parse XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if started && depth == 0 {
				return Metrics{}, parseError("junk after document element")
			}

			scopes = append(scopes, declaredNamespaces(t.Attr))
			if err := checkPrefixes(t, scopes); err != nil {
				return Metrics{}, err
			}

			if !started {
				started = true
				if t.Name.Space == "" && t.Name.Local == "article" {
					m.IsArticle = true
					for _, a := range t.Attr {
						if a.Name.Space == "" && a.Name.Local == "article-type" {
							m.DocType = a.Value
						}
					}
				}
			}
			depth++
			if !m.IsArticle {
				continue
			}

			flush()
			el := &element{open: true}
			if depth > 1 && t.Name.Space == "" && t.Name.Local == "article-id" {
				for _, a := range t.Attr {
					if a.Value == "doi" {
						el.isDOIID = true
						break
					}
				}
			}
			stack = append(stack, el)

		case xml.CharData:
			if depth == 0 {
				if !isSpace(t) {
					return Metrics{}, parseError("text outside the document element")
				}
				continue
			}
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.open {
					top.text.Write(t)
				}
			}

		case xml.EndElement:
			depth--
			scopes = scopes[:len(scopes)-1]
			if !m.IsArticle {
				continue
			}
			flush()
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.isDOIID {
				m.DOI = top.text.String()
			}
		}
	}

	if !started {
		return Metrics{}, parseError("no root element")
	}
	if !m.IsArticle {
		return Metrics{}, nil
	}

	m.TextSize = total
	return m, nil
}

func parseError(msg string) error {
	return fmt.Errorf("failed to parse XML: %s", msg)
}

// isSpace reports whether b holds only XML whitespace.
func isSpace(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}

// declaredNamespaces returns the namespace URIs bound by xmlns attributes.
func declaredNamespaces(attrs []xml.Attr) []string {
	var uris []string
	for _, a := range attrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			uris = append(uris, a.Value)
		}
	}
	return uris
}

// checkPrefixes rejects element and attribute names whose prefix has no
// binding in scope. The decoder leaves such names with the bare prefix as
// their Space, which then matches no declared URI.
func checkPrefixes(t xml.StartElement, scopes [][]string) error {
	if !bound(t.Name.Space, scopes) {
		return parseError(fmt.Sprintf("unbound prefix %q", t.Name.Space))
	}
	for _, a := range t.Attr {
		if a.Name.Space == "xmlns" {
			continue
		}
		if !bound(a.Name.Space, scopes) {
			return parseError(fmt.Sprintf("unbound prefix %q", a.Name.Space))
		}
	}
	return nil
}

func bound(space string, scopes [][]string) bool {
	if space == "" || space == xmlNamespace {
		return true
	}
	for _, uris := range scopes {
		for _, u := range uris {
			if u == space {
				return true
			}
		}
	}
	return false
}

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"
