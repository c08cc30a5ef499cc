package ob

import (
	"strings"

	"kexec-go/kerrors"
)

var (
	errPathEmpty        = kerrors.New(kerrors.ErrInvalidConfig, "ob_insert", "empty namespace path")
	errPathNotDirectory = kerrors.New(kerrors.ErrInvalidConfig, "ob_insert", "path component is not a directory")
	errPathExists       = kerrors.ErrNameExists
)

// nsNode is an interior directory or leaf of the OB namespace tree.
// Path resolution is case-preserving; both '/' and '\' are accepted as
// separators and treated as equivalent.
type nsNode struct {
	name     string
	object   *Object // non-nil for a leaf publishing an object
	symlink  string  // non-empty for a symbolic link target
	children map[string]*nsNode
}

func newDirNode(name string) *nsNode {
	return &nsNode{name: name, children: make(map[string]*nsNode)}
}

func splitPath(path string) []string {
	path = strings.ReplaceAll(path, "\\", "/")
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// namespace is the rooted tree backing Manager.Insert/Lookup.
type namespace struct {
	root *nsNode
}

func newNamespace() *namespace {
	return &namespace{root: newDirNode("/")}
}

// insert publishes obj at path, creating intermediate directories on
// demand. Fails if the leaf name already exists.
func (ns *namespace) insert(path string, obj *Object) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return errPathEmpty
	}
	dir := ns.root
	for _, seg := range parts[:len(parts)-1] {
		child, ok := dir.children[seg]
		if !ok {
			child = newDirNode(seg)
			dir.children[seg] = child
		} else if child.object != nil {
			return errPathNotDirectory
		}
		dir = child
	}
	leaf := parts[len(parts)-1]
	if _, exists := dir.children[leaf]; exists {
		return errPathExists
	}
	dir.children[leaf] = &nsNode{name: leaf, object: obj}
	obj.Path = normalizePath(parts)
	return nil
}

// lookup resolves path to an object, following symbolic links.
func (ns *namespace) lookup(path string) (*Object, bool) {
	node, ok := ns.resolve(path, 0)
	if !ok || node.object == nil {
		return nil, false
	}
	return node.object, true
}

func (ns *namespace) resolve(path string, depth int) (*nsNode, bool) {
	if depth > 32 {
		return nil, false
	}
	parts := splitPath(path)
	dir := ns.root
	for i, seg := range parts {
		child, ok := dir.children[seg]
		if !ok {
			return nil, false
		}
		if child.symlink != "" {
			target, ok := ns.resolve(child.symlink, depth+1)
			if !ok {
				return nil, false
			}
			if i == len(parts)-1 {
				return target, true
			}
			dir = target
			continue
		}
		if i == len(parts)-1 {
			return child, true
		}
		dir = child
	}
	return dir, true
}

// remove deletes the leaf at path, if present.
func (ns *namespace) remove(path string) bool {
	parts := splitPath(path)
	if len(parts) == 0 {
		return false
	}
	dir := ns.root
	for _, seg := range parts[:len(parts)-1] {
		child, ok := dir.children[seg]
		if !ok {
			return false
		}
		dir = child
	}
	leaf := parts[len(parts)-1]
	if _, ok := dir.children[leaf]; !ok {
		return false
	}
	delete(dir.children, leaf)
	return true
}

// walk enumerates every published object path under the namespace, for
// dump_directory.
func (ns *namespace) walk() []string {
	var out []string
	var visit func(prefix string, n *nsNode)
	visit = func(prefix string, n *nsNode) {
		for name, child := range n.children {
			p := prefix + "/" + name
			if child.object != nil {
				out = append(out, p)
			}
			if child.children != nil {
				visit(p, child)
			}
		}
	}
	visit("", ns.root)
	return out
}

func normalizePath(parts []string) string {
	return "/" + strings.Join(parts, "/")
}
