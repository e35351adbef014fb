package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"go.uber.org/multierr"

	"github.com/sfmstack/camerainit/imageio"
)

// manifestKey is the required top-level member of a manifest document.
const manifestKey = "resources"

// nodeKind tags one manifest value after the structural pass. Raw JSON
// values are converted to nodes exactly once; the resolver below never
// re-inspects dynamic types.
type nodeKind int

const (
	nodePath nodeKind = iota
	nodeSequence
)

type manifestNode struct {
	kind     nodeKind
	path     string
	children []manifestNode
}

// decodeNode converts one raw manifest value into its tagged form. The
// grammar allows three nesting levels: a top-level entry is a path or a
// sequence, a group entry is a path or a sequence, and a rig camera entry
// must be a path.
func decodeNode(v any, where string, depth int) (manifestNode, error) {
	switch value := v.(type) {
	case string:
		return manifestNode{kind: nodePath, path: value}, nil
	case []any:
		if depth >= 2 {
			return manifestNode{}, errors.Errorf("%s: a rig camera entry must be a path, not a nested sequence", where)
		}
		node := manifestNode{kind: nodeSequence}
		var decodeErrs error
		for i, child := range value {
			childNode, err := decodeNode(child, fmt.Sprintf("%s[%d]", where, i), depth+1)
			if err != nil {
				decodeErrs = multierr.Append(decodeErrs, err)
				continue
			}
			node.children = append(node.children, childNode)
		}
		if decodeErrs != nil {
			return manifestNode{}, decodeErrs
		}
		return node, nil
	default:
		return manifestNode{}, errors.Errorf("%s: entry must be a path or a sequence, got %T", where, v)
	}
}

// listFiles resolves one input path. A direct file is kept when its
// extension is supported, a directory is walked recursively in name order.
// An empty directory or a path that is neither file nor directory is an
// error; errors inside a directory accumulate so one run reports every
// offending path.
func listFiles(path string, out *[]string) error {
	info, err := os.Stat(path)
	if err != nil || (!info.Mode().IsRegular() && !info.IsDir()) {
		return errors.Errorf("%q is not a valid file or directory path", path)
	}
	if info.Mode().IsRegular() {
		if imageio.HasSupportedExtension(path) {
			*out = append(*out, path)
		}
		return nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return errors.Wrapf(err, "cannot list directory %q", path)
	}
	if len(entries) == 0 {
		return errors.Errorf("directory %q is empty", path)
	}
	var listErrs error
	for _, entry := range entries {
		listErrs = multierr.Append(listErrs, listFiles(filepath.Join(path, entry.Name()), out))
	}
	return listErrs
}

// FromDirectory lists the immediate files of dir, keeps those with a
// supported image extension, and returns each as its own single-image group
// in lexicographic order. Frames stay relative to dir; the listing pass
// resolves them against its root path.
func FromDirectory(dir string) (*Tree, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list image directory %q", dir)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !imageio.HasSupportedExtension(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return nil, errors.Errorf("no supported images found in directory %q", dir)
	}
	sort.Strings(names)

	tree := &Tree{}
	for _, name := range names {
		tree.Groups = append(tree.Groups, Group{Cameras: []Camera{{Frames: []string{name}}}})
	}
	return tree, nil
}

// FromManifest parses a manifest document and resolves every entry of its
// top-level "resources" sequence.
//
// A top-level path explodes into one single-image group per resolved file. A
// top-level sequence forms one group: each nested sequence inside it becomes
// one rig camera, and all plain paths inside it pool into a single shared
// camera appended after the rig cameras. Resolution failures accumulate
// across the whole manifest before the combined error is returned.
func FromManifest(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read manifest %q", path)
	}

	var doc map[string]any
	if err := json5.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "manifest %q is not a well-formed document", path)
	}
	raw, ok := doc[manifestKey]
	if !ok {
		return nil, errors.Errorf("manifest %q has no top-level %q member", path, manifestKey)
	}
	sequence, ok := raw.([]any)
	if !ok {
		return nil, errors.Errorf("manifest %q: member %q is not a sequence", path, manifestKey)
	}

	var resolveErrs error
	var nodes []manifestNode
	for i, entry := range sequence {
		node, err := decodeNode(entry, fmt.Sprintf("%s[%d]", manifestKey, i), 0)
		if err != nil {
			resolveErrs = multierr.Append(resolveErrs, err)
			continue
		}
		nodes = append(nodes, node)
	}

	tree := &Tree{}
	for _, node := range nodes {
		switch node.kind {
		case nodePath:
			var paths []string
			if err := listFiles(node.path, &paths); err != nil {
				resolveErrs = multierr.Append(resolveErrs, err)
			}
			for _, p := range paths {
				tree.Groups = append(tree.Groups, Group{Cameras: []Camera{{Frames: []string{p}}}})
			}
		case nodeSequence:
			if len(node.children) == 0 {
				resolveErrs = multierr.Append(resolveErrs, errors.New("manifest group entry is an empty sequence"))
				continue
			}
			group := Group{}
			var shared []string
			for _, child := range node.children {
				switch child.kind {
				case nodePath:
					if err := listFiles(child.path, &shared); err != nil {
						resolveErrs = multierr.Append(resolveErrs, err)
					}
				case nodeSequence:
					if len(child.children) == 0 {
						resolveErrs = multierr.Append(resolveErrs, errors.New("manifest rig camera entry is an empty sequence"))
						continue
					}
					var frames []string
					for _, leaf := range child.children {
						if err := listFiles(leaf.path, &frames); err != nil {
							resolveErrs = multierr.Append(resolveErrs, err)
						}
					}
					group.Cameras = append(group.Cameras, Camera{Frames: frames})
				}
			}
			if len(shared) > 0 {
				group.Cameras = append(group.Cameras, Camera{Frames: shared})
			}
			tree.Groups = append(tree.Groups, group)
		}
	}
	if resolveErrs != nil {
		return nil, errors.Wrapf(resolveErrs, "cannot resolve image paths from manifest %q", path)
	}
	return tree, nil
}
