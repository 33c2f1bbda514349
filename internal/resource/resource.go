// Package resource reconciles the static resources discovered on two
// renderings of a page and builds the hierarchical folder view of them.
package resource

// Type classifies a discovered static resource.
type Type string

const (
	TypeScript     Type = "script"
	TypeStylesheet Type = "stylesheet"
	TypeImage      Type = "image"
	TypeFont       Type = "font"
	TypeMedia      Type = "media"
	TypeDocument   Type = "document"
	TypeOther      Type = "other"
)

// Categories are the buckets reconciliation operates in. Matching never
// crosses a category boundary. Document-typed resources are reconciled in
// the other bucket.
var Categories = []Type{
	TypeScript,
	TypeStylesheet,
	TypeImage,
	TypeFont,
	TypeMedia,
	TypeOther,
}

// bucketFor maps a resource type onto its reconciliation category.
func bucketFor(t Type) Type {
	switch t {
	case TypeScript, TypeStylesheet, TypeImage, TypeFont, TypeMedia:
		return t
	default:
		return TypeOther
	}
}

// Resource is one discovered static asset. Size, Cached and Content are
// pointers because "not known / not fetched" is a valid state distinct
// from zero or empty: a nil Content must never be treated as empty content
// when diffing.
type Resource struct {
	URL      string  `json:"url"`
	Type     Type    `json:"type"`
	Size     *int64  `json:"size,omitempty"`
	Cached   *bool   `json:"cached,omitempty"`
	Content  *string `json:"content,omitempty"`
	Path     string  `json:"path,omitempty"`
	FileName string  `json:"file_name,omitempty"`
}
