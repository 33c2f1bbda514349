// Package discover scans a fetched document for the static resources it
// references. It is one of the collaborator-side mechanisms that feed the
// resource reconciler; the reconciler itself only sees the flat list.
package discover

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stagediff/stagediff/internal/resource"
)

var cssURLPattern = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)

var fontExtensions = map[string]bool{
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
}

var mediaExtensions = map[string]bool{
	".mp4": true, ".webm": true, ".ogg": true, ".mp3": true, ".wav": true, ".m4a": true, ".mov": true,
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".svg": true, ".ico": true, ".avif": true, ".bmp": true,
}

// Resources extracts every static resource referenced by the document:
// external scripts, stylesheets, images (including lazy-load data-src),
// media sources, preloaded fonts, and CSS background images. Relative
// references are resolved against baseURL. Duplicate URLs are collapsed
// to the first occurrence, preserving document order.
func Resources(html, baseURL string) []resource.Resource {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, _ := url.Parse(baseURL)

	var out []resource.Resource
	seen := make(map[string]bool)

	add := func(ref string, typ resource.Type) {
		ref = strings.TrimSpace(ref)
		if ref == "" || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "javascript:") {
			return
		}
		resolved := resolve(base, ref)
		if seen[resolved] {
			return
		}
		seen[resolved] = true

		res := resource.Resource{URL: resolved, Type: typ}
		if u, err := url.Parse(resolved); err == nil {
			res.Path = u.Path
			res.FileName = path.Base(u.Path)
		}
		out = append(out, res)
	}

	doc.Find("script[src]").Each(func(i int, sel *goquery.Selection) {
		add(sel.AttrOr("src", ""), resource.TypeScript)
	})

	doc.Find("link[href]").Each(func(i int, sel *goquery.Selection) {
		href := sel.AttrOr("href", "")
		rel := strings.ToLower(sel.AttrOr("rel", ""))
		switch {
		case strings.Contains(rel, "stylesheet"):
			add(href, resource.TypeStylesheet)
		case strings.Contains(rel, "preload") && strings.EqualFold(sel.AttrOr("as", ""), "font"):
			add(href, resource.TypeFont)
		case strings.Contains(rel, "icon"):
			add(href, resource.TypeImage)
		}
	})

	doc.Find("img").Each(func(i int, sel *goquery.Selection) {
		add(sel.AttrOr("src", ""), resource.TypeImage)
		// Lazy-loaded images keep the real URL in data-src.
		add(sel.AttrOr("data-src", ""), resource.TypeImage)
	})

	doc.Find("video, audio, source").Each(func(i int, sel *goquery.Selection) {
		add(sel.AttrOr("src", ""), resource.TypeMedia)
	})

	doc.Find("[style]").Each(func(i int, sel *goquery.Selection) {
		for _, ref := range cssURLs(sel.AttrOr("style", "")) {
			add(ref, typeByExtension(ref))
		}
	})
	doc.Find("style").Each(func(i int, sel *goquery.Selection) {
		for _, ref := range cssURLs(sel.Text()) {
			add(ref, typeByExtension(ref))
		}
	})

	return out
}

// cssURLs pulls url(...) references out of a CSS fragment.
func cssURLs(css string) []string {
	matches := cssURLPattern.FindAllStringSubmatch(css, -1)
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, m[1])
	}
	return refs
}

// typeByExtension classifies a bare URL reference by its file extension.
func typeByExtension(ref string) resource.Type {
	ext := strings.ToLower(path.Ext(stripQuery(ref)))
	switch {
	case fontExtensions[ext]:
		return resource.TypeFont
	case mediaExtensions[ext]:
		return resource.TypeMedia
	case imageExtensions[ext]:
		return resource.TypeImage
	case ext == ".js" || ext == ".mjs":
		return resource.TypeScript
	case ext == ".css":
		return resource.TypeStylesheet
	default:
		return resource.TypeOther
	}
}

func stripQuery(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i]
	}
	return ref
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
