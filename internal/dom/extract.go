package dom

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// maxTextLen bounds captured element text. Truncation is a display
// concession; callers must not reconstruct full text from a fact.
const maxTextLen = 80

// Counts aggregates element totals for one document.
type Counts struct {
	TotalElements   int         `json:"total_elements"`
	Scripts         int         `json:"scripts"`
	Styles          int         `json:"styles"`
	Images          int         `json:"images"`
	Links           int         `json:"links"`
	Forms           int         `json:"forms"`
	HeadingsByLevel map[int]int `json:"headings_by_level"`
}

// Snapshot is the structured fact sheet extracted from one HTML document.
// It is built once per environment per comparison and not mutated after.
type Snapshot struct {
	Counts Counts `json:"counts"`

	Scripts FactList `json:"scripts"`
	Styles  FactList `json:"styles"`
	Images  FactList `json:"images"`
	Links   FactList `json:"links"`
	Metas   FactList `json:"metas"`

	// Headings holds every heading level 1..6 in document order across
	// all levels, each annotated with its level.
	Headings FactList `json:"headings"`

	// H1Texts lists the text of each <h1> in document order.
	H1Texts []string `json:"h1_texts"`
}

// Facts returns the fact list for a category, nil for unknown categories.
func (s *Snapshot) Facts(c Category) []Fact {
	switch c {
	case CategoryScript:
		return s.Scripts
	case CategoryStyle:
		return s.Styles
	case CategoryImage:
		return s.Images
	case CategoryLink:
		return s.Links
	case CategoryMeta:
		return s.Metas
	case CategoryHeading:
		return s.Headings
	}
	return nil
}

// MetaContent returns the content of the first <meta> whose name or
// property attribute equals key, and whether such a tag exists.
func (s *Snapshot) MetaContent(key string) (string, bool) {
	for _, f := range s.Metas {
		m, ok := f.(MetaFact)
		if !ok {
			continue
		}
		if (m.Name != nil && *m.Name == key) || (m.Property != nil && *m.Property == key) {
			if m.Content != nil {
				return *m.Content, true
			}
			return "", true
		}
	}
	return "", false
}

// Extract parses html and walks the recovered tree once to populate every
// count and detail list. Malformed HTML is never an error: the underlying
// parser recovers best-effort and a totally empty document simply yields
// all-zero counts.
func Extract(html string) *Snapshot {
	snap := &Snapshot{
		Counts: Counts{HeadingsByLevel: make(map[int]int)},
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Reader errors cannot occur with an in-memory string; return the
		// empty fact sheet rather than failing the comparison.
		return snap
	}

	snap.Counts.TotalElements = doc.Find("*").Length()
	snap.Counts.Forms = doc.Find("form").Length()

	doc.Find("script").Each(func(i int, sel *goquery.Selection) {
		src := attrPtr(sel, "src")
		fact := ScriptFact{
			Src:    src,
			Type:   attrPtr(sel, "type"),
			Async:  hasAttr(sel, "async"),
			Defer:  hasAttr(sel, "defer"),
			Inline: src == nil,
		}
		if fact.Inline {
			fact.Text = truncate(sel.Text())
		}
		snap.Scripts = append(snap.Scripts, fact)
	})
	snap.Counts.Scripts = len(snap.Scripts)

	doc.Find(`link[rel="stylesheet"]`).Each(func(i int, sel *goquery.Selection) {
		snap.Styles = append(snap.Styles, StyleFact{
			Href:  attrPtr(sel, "href"),
			Media: attrPtr(sel, "media"),
		})
	})
	doc.Find("style").Each(func(i int, sel *goquery.Selection) {
		snap.Styles = append(snap.Styles, StyleFact{
			Media:  attrPtr(sel, "media"),
			Inline: true,
			Text:   truncate(sel.Text()),
		})
	})
	snap.Counts.Styles = len(snap.Styles)

	doc.Find("img").Each(func(i int, sel *goquery.Selection) {
		snap.Images = append(snap.Images, ImageFact{
			Src:     attrPtr(sel, "src"),
			Alt:     attrPtr(sel, "alt"),
			Width:   attrPtr(sel, "width"),
			Height:  attrPtr(sel, "height"),
			Loading: attrPtr(sel, "loading"),
		})
	})
	snap.Counts.Images = len(snap.Images)

	doc.Find("a").Each(func(i int, sel *goquery.Selection) {
		snap.Links = append(snap.Links, LinkFact{
			Href:   attrPtr(sel, "href"),
			Rel:    attrPtr(sel, "rel"),
			Target: attrPtr(sel, "target"),
			Text:   truncate(sel.Text()),
		})
	})
	snap.Counts.Links = len(snap.Links)

	doc.Find("meta").Each(func(i int, sel *goquery.Selection) {
		snap.Metas = append(snap.Metas, MetaFact{
			Name:     attrPtr(sel, "name"),
			Property: attrPtr(sel, "property"),
			Content:  attrPtr(sel, "content"),
			Charset:  attrPtr(sel, "charset"),
		})
	})

	// One pass over h1..h6 keeps document order across levels; the
	// per-level counts are still tracked independently.
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(i int, sel *goquery.Selection) {
		level := headingLevel(goquery.NodeName(sel))
		if level == 0 {
			return
		}
		text := truncate(sel.Text())
		snap.Headings = append(snap.Headings, HeadingFact{Level: level, Text: text})
		snap.Counts.HeadingsByLevel[level]++
		if level == 1 {
			snap.H1Texts = append(snap.H1Texts, text)
		}
	})

	return snap
}

func headingLevel(nodeName string) int {
	if len(nodeName) != 2 || nodeName[0] != 'h' {
		return 0
	}
	if nodeName[1] < '1' || nodeName[1] > '6' {
		return 0
	}
	return int(nodeName[1] - '0')
}

// attrPtr retrieves an attribute as a pointer so a missing attribute stays
// distinguishable from one that is present but empty.
func attrPtr(sel *goquery.Selection, name string) *string {
	val, exists := sel.Attr(name)
	if !exists {
		return nil
	}
	val = strings.TrimSpace(val)
	return &val
}

func hasAttr(sel *goquery.Selection, name string) bool {
	_, exists := sel.Attr(name)
	return exists
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxTextLen {
		return s
	}
	cut := s[:maxTextLen]
	// Do not cut a UTF-8 sequence in half.
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
