package chunks

import (
	"cmp"
	"maps"
	"path"
	"slices"
	"strings"
)

// Group priorities; a module matching several groups goes to the highest.
const (
	VendorPriority = 0
	CommonPriority = -10
	EntryPriority  = -20
)

// Group is one logical chunk and the modules placed in it.
type Group struct {
	Name     string   `json:"name"`
	Priority int      `json:"priority"`
	Bytes    int      `json:"bytes"`
	Inputs   []string `json:"inputs"`
	Outputs  []string `json:"outputs"`
}

// Manifest lists groups ordered by priority, then name.
type Manifest struct {
	Groups []*Group `json:"groups"`
}

// Group returns the named group or nil.
func (m *Manifest) Group(name string) *Group {
	for _, g := range m.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Vendors returns the groups holding third-party packages.
func (m *Manifest) Vendors() []*Group {
	var vendors []*Group
	for _, g := range m.Groups {
		if g.Priority == VendorPriority {
			vendors = append(vendors, g)
		}
	}
	return vendors
}

// Options tunes Classify.
type Options struct {
	// VendorGroup labels third-party chunks, defaults to DefaultVendorGroup.
	VendorGroup string
}

// Classify assigns every input in meta to exactly one group: dependencies to
// "<vendor group>.<package>", application code reached from two or more entry
// points to "common", and code reached from a single entry point to the group
// named after it. An output belongs to the entry points whose import graph
// reaches it, including their CSS bundles; emitted asset files are attributed
// through the inputs they share with those outputs. Source maps are skipped.
func Classify(meta Metafile, opts Options) (*Manifest, error) {
	group := cmp.Or(opts.VendorGroup, DefaultVendorGroup)

	reached := reachability(meta)
	owners := map[string]set{}
	for outPath, out := range meta.Outputs {
		for inPath := range out.Inputs {
			for entry := range reached[outPath] {
				owners[inPath] = owners[inPath].add(entry)
			}
		}
	}

	groups := map[string]*Group{}
	inputs := map[string]set{}
	outputs := map[string]set{}

	for _, outPath := range slices.Sorted(maps.Keys(meta.Outputs)) {
		if strings.HasSuffix(outPath, ".map") {
			continue
		}
		out := meta.Outputs[outPath]

		for _, inPath := range slices.Sorted(maps.Keys(out.Inputs)) {
			name, priority, ok, err := assign(inPath, owners[inPath], group)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			g, exists := groups[name]
			if !exists {
				g = &Group{Name: name, Priority: priority}
				groups[name] = g
			}
			g.Bytes += out.Inputs[inPath].BytesInOutput
			inputs[name] = inputs[name].add(inPath)
			outputs[name] = outputs[name].add(outPath)
		}
	}

	m := &Manifest{}
	for name, g := range groups {
		g.Inputs = slices.Sorted(maps.Keys(inputs[name]))
		g.Outputs = slices.Sorted(maps.Keys(outputs[name]))
		m.Groups = append(m.Groups, g)
	}
	slices.SortFunc(m.Groups, func(a, b *Group) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	return m, nil
}

type set map[string]struct{}

func (s set) add(v string) set {
	if s == nil {
		s = set{}
	}
	s[v] = struct{}{}
	return s
}

// reachability maps each output to the entry points that load it, following
// static and dynamic imports between outputs and each output's CSS bundle.
func reachability(meta Metafile) map[string]set {
	reached := map[string]set{}
	for outPath, out := range meta.Outputs {
		if out.EntryPoint == "" {
			continue
		}
		stack := []string{outPath}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, seen := reached[p][out.EntryPoint]; seen {
				continue
			}
			reached[p] = reached[p].add(out.EntryPoint)

			next, ok := meta.Outputs[p]
			if !ok {
				continue
			}
			if next.CSSBundle != "" {
				stack = append(stack, next.CSSBundle)
			}
			for _, imp := range next.Imports {
				if !imp.External {
					stack = append(stack, imp.Path)
				}
			}
		}
	}
	return reached
}

// assign picks the group for one input given the entry points that load it.
// Inputs no entry point loads are left out.
func assign(inPath string, entries set, vendorGroup string) (string, int, bool, error) {
	dir := contextDir(inPath)
	if IsVendor(dir) {
		name, err := Name(dir, vendorGroup)
		if err != nil {
			return "", 0, false, err
		}
		return name, VendorPriority, true, nil
	}

	switch len(entries) {
	case 0:
		return "", 0, false, nil
	case 1:
		for entry := range entries {
			return entryName(entry), EntryPriority, true, nil
		}
	}
	return CommonGroup, CommonPriority, true, nil
}

// contextDir returns the directory holding a module, the way bundlers expose
// a module's context.
func contextDir(file string) string {
	if i := strings.LastIndexAny(file, `/\`); i >= 0 {
		return file[:i]
	}
	return ""
}

func entryName(entryPoint string) string {
	base := path.Base(strings.ReplaceAll(entryPoint, `\`, "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
