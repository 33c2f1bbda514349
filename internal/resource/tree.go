package resource

// NodeKind tags a FolderNode as directory or file.
type NodeKind string

const (
	KindFolder NodeKind = "folder"
	KindFile   NodeKind = "file"
)

// FolderNode is one node of the hierarchical path view of a resource list.
// Path is the "/"-joined sequence of ancestor names including self, always
// relative, never host-qualified. Folder children are unique per
// (name, kind). Trees are built fresh per environment per comparison and
// never mutated in place.
type FolderNode struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Kind     NodeKind      `json:"kind"`
	Children []*FolderNode `json:"children,omitempty"`
	Resource *Resource     `json:"resource,omitempty"`
}

// BuildTree converts a flat resource list into a folder/file tree keyed by
// the marker-truncated relative path of each resource. A resource whose
// path contains a denylisted segment is skipped entirely; the denylist is
// collaborator-supplied (generated-artifact folders), not a universal rule.
// Every non-filtered resource lands in exactly one file node; shared
// ancestor directories produce one shared folder node.
func BuildTree(resources []Resource, marker string, deny []string) *FolderNode {
	root := &FolderNode{Name: "", Path: "", Kind: KindFolder}

	denied := make(map[string]bool, len(deny))
	for _, d := range deny {
		denied[d] = true
	}

resources:
	for i := range resources {
		res := resources[i]
		key, _ := NormalizedKey(res.URL, marker)
		segs := PathSegments(key)
		if len(segs) == 0 {
			continue
		}
		for _, s := range segs {
			if denied[s] {
				continue resources
			}
		}

		node := root
		for _, s := range segs[:len(segs)-1] {
			node = node.child(s, KindFolder, nil)
		}
		node.child(segs[len(segs)-1], KindFile, &res)
	}
	return root
}

// child returns the (name, kind) child of n, creating it when missing.
// An existing node wins over a duplicate, keeping construction
// deterministic when two resources share a normalized key.
func (n *FolderNode) child(name string, kind NodeKind, res *Resource) *FolderNode {
	for _, c := range n.Children {
		if c.Name == name && c.Kind == kind {
			return c
		}
	}
	path := name
	if n.Path != "" {
		path = n.Path + "/" + name
	}
	c := &FolderNode{Name: name, Path: path, Kind: kind, Resource: res}
	n.Children = append(n.Children, c)
	return c
}

// FindNode descends from root by (name, kind) at each level: intermediate
// segments must be folders and the final segment must match kind. Returns
// nil when any step is missing. Relative-path descent is the only stable
// cross-environment join, since dev and prod absolute URLs differ by host.
func FindNode(root *FolderNode, segments []string, kind NodeKind) *FolderNode {
	if root == nil || len(segments) == 0 {
		return nil
	}
	node := root
	for i, s := range segments {
		want := KindFolder
		if i == len(segments)-1 {
			want = kind
		}
		var next *FolderNode
		for _, c := range node.Children {
			if c.Name == s && c.Kind == want {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		node = next
	}
	return node
}

// TreeDiff lists file paths unique to one tree and matched files whose
// fetched contents differ.
type TreeDiff struct {
	OnlyA          []string `json:"only_a"`
	OnlyB          []string `json:"only_b"`
	ContentDiffers []string `json:"content_differs"`
}

// DiffTrees matches file nodes across two trees by relative path. A
// matched file is flagged as differing only when both sides carry fetched
// content and the strings differ; content absent on either side claims
// neither sameness nor difference.
func DiffTrees(a, b *FolderNode) TreeDiff {
	diff := TreeDiff{OnlyA: []string{}, OnlyB: []string{}, ContentDiffers: []string{}}

	walkFiles(a, nil, func(node *FolderNode, segs []string) {
		match := FindNode(b, segs, KindFile)
		if match == nil {
			diff.OnlyA = append(diff.OnlyA, node.Path)
			return
		}
		ca, cb := node.Resource.Content, match.Resource.Content
		if ca != nil && cb != nil && *ca != *cb {
			diff.ContentDiffers = append(diff.ContentDiffers, node.Path)
		}
	})
	walkFiles(b, nil, func(node *FolderNode, segs []string) {
		if FindNode(a, segs, KindFile) == nil {
			diff.OnlyB = append(diff.OnlyB, node.Path)
		}
	})
	return diff
}

// walkFiles visits every file node in insertion order, handing the visitor
// the relative path segments from (but excluding) root.
func walkFiles(node *FolderNode, segs []string, visit func(*FolderNode, []string)) {
	if node == nil {
		return
	}
	for _, c := range node.Children {
		childSegs := append(append([]string{}, segs...), c.Name)
		if c.Kind == KindFile {
			visit(c, childSegs)
		} else {
			walkFiles(c, childSegs, visit)
		}
	}
}
