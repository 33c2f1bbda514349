// Package dom extracts a structural fact sheet from an HTML document and
// reconciles fact lists between two environments.
package dom

import (
	"strconv"
	"strings"
)

// Category identifies the element kind a Fact was extracted from.
type Category string

const (
	CategoryScript  Category = "script"
	CategoryStyle   Category = "style"
	CategoryImage   Category = "image"
	CategoryLink    Category = "link"
	CategoryMeta    Category = "meta"
	CategoryHeading Category = "heading"
)

// Fact is one per-element detail record. The set of implementations is
// closed: ScriptFact, StyleFact, ImageFact, LinkFact, MetaFact and
// HeadingFact. Key returns a deterministic serialization of every field;
// two facts are equal for reconciliation purposes iff their keys match.
// Optional attribute fields are pointers so "attribute absent" stays
// distinguishable from "attribute present but empty".
type Fact interface {
	Category() Category
	Key() string

	sealedFact()
}

// ScriptFact describes one <script> element.
type ScriptFact struct {
	Src    *string `json:"src,omitempty"`
	Type   *string `json:"type,omitempty"`
	Async  bool    `json:"async"`
	Defer  bool    `json:"defer"`
	Inline bool    `json:"inline"`
	// Text is a bounded snippet of inline script content, for display only.
	Text string `json:"text,omitempty"`
}

func (ScriptFact) Category() Category { return CategoryScript }
func (ScriptFact) sealedFact()        {}

func (f ScriptFact) Key() string {
	return joinKey("script",
		optField("src", f.Src),
		optField("type", f.Type),
		boolField("async", f.Async),
		boolField("defer", f.Defer),
		boolField("inline", f.Inline),
		strField("text", f.Text),
	)
}

// StyleFact describes one <link rel=stylesheet> or inline <style> element.
type StyleFact struct {
	Href   *string `json:"href,omitempty"`
	Media  *string `json:"media,omitempty"`
	Inline bool    `json:"inline"`
	Text   string  `json:"text,omitempty"`
}

func (StyleFact) Category() Category { return CategoryStyle }
func (StyleFact) sealedFact()        {}

func (f StyleFact) Key() string {
	return joinKey("style",
		optField("href", f.Href),
		optField("media", f.Media),
		boolField("inline", f.Inline),
		strField("text", f.Text),
	)
}

// ImageFact describes one <img> element.
type ImageFact struct {
	Src     *string `json:"src,omitempty"`
	Alt     *string `json:"alt,omitempty"`
	Width   *string `json:"width,omitempty"`
	Height  *string `json:"height,omitempty"`
	Loading *string `json:"loading,omitempty"`
}

func (ImageFact) Category() Category { return CategoryImage }
func (ImageFact) sealedFact()        {}

func (f ImageFact) Key() string {
	return joinKey("image",
		optField("src", f.Src),
		optField("alt", f.Alt),
		optField("width", f.Width),
		optField("height", f.Height),
		optField("loading", f.Loading),
	)
}

// LinkFact describes one <a> element.
type LinkFact struct {
	Href   *string `json:"href,omitempty"`
	Rel    *string `json:"rel,omitempty"`
	Target *string `json:"target,omitempty"`
	Text   string  `json:"text,omitempty"`
}

func (LinkFact) Category() Category { return CategoryLink }
func (LinkFact) sealedFact()        {}

func (f LinkFact) Key() string {
	return joinKey("link",
		optField("href", f.Href),
		optField("rel", f.Rel),
		optField("target", f.Target),
		strField("text", f.Text),
	)
}

// MetaFact describes one <meta> element.
type MetaFact struct {
	Name     *string `json:"name,omitempty"`
	Property *string `json:"property,omitempty"`
	Content  *string `json:"content,omitempty"`
	Charset  *string `json:"charset,omitempty"`
}

func (MetaFact) Category() Category { return CategoryMeta }
func (MetaFact) sealedFact()        {}

func (f MetaFact) Key() string {
	return joinKey("meta",
		optField("name", f.Name),
		optField("property", f.Property),
		optField("content", f.Content),
		optField("charset", f.Charset),
	)
}

// HeadingFact describes one <h1>..<h6> element. Level is in 1..6.
type HeadingFact struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

func (HeadingFact) Category() Category { return CategoryHeading }
func (HeadingFact) sealedFact()        {}

func (f HeadingFact) Key() string {
	return joinKey("heading",
		strField("level", strconv.Itoa(f.Level)),
		strField("text", f.Text),
	)
}

// --- key serialization helpers ---

func joinKey(category string, parts ...string) string {
	return category + "|" + strings.Join(parts, "|")
}

// optField encodes a pointer field so nil and "" serialize differently.
func optField(name string, v *string) string {
	if v == nil {
		return name + "=<absent>"
	}
	return name + "=" + strconv.Quote(*v)
}

func strField(name, v string) string {
	return name + "=" + strconv.Quote(v)
}

func boolField(name string, v bool) string {
	return name + "=" + strconv.FormatBool(v)
}
