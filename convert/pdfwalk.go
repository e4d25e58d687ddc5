package convert

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// MaxFormDepth bounds how deep nested Form XObjects are followed
const MaxFormDepth = 32

// maxParentDepth bounds the page tree walk when looking for inherited resources
const maxParentDepth = 64

// Resolver resolves indirect references. *model.Context satisfies it.
type Resolver interface {
	Dereference(o types.Object) (types.Object, error)
}

// ImageStream is an embedded image found in a page's resource graph
type ImageStream struct {
	// Name is the resource name the image was found under, e.g. Im0
	Name   string
	ObjNr  int
	Filter string
	// Raw holds the stream bytes exactly as stored in the file
	Raw []byte
}

type xobjectEntry struct {
	name  string
	obj   types.Object
	depth int
}

// WalkImages returns the images reachable from a resource dictionary in
// pre-order: resource names in natural order, a Form's images before the
// next sibling. Each indirect object is visited at most once, so cyclic or
// self-referencing Forms terminate. Missing dictionaries and references that
// cannot be resolved contribute nothing.
func WalkImages(r Resolver, resources types.Object) []ImageStream {
	var (
		images  []ImageStream
		stack   []xobjectEntry
		visited = make(map[types.IndirectRef]bool)
	)

	stack = pushXObjects(r, stack, resources, 0)

	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ref, isRef := asIndirectRef(entry.obj)
		if isRef {
			if visited[ref] {
				continue
			}
			visited[ref] = true
		}

		sd, ok := resolveStream(r, entry.obj)
		if !ok {
			continue
		}

		switch nameValue(r, sd.Dict["Subtype"]) {
		case "Image":
			img := ImageStream{
				Name:   entry.name,
				Filter: filterName(r, sd.Dict["Filter"]),
				Raw:    sd.Raw,
			}
			if isRef {
				img.ObjNr = int(ref.ObjectNumber)
			}
			images = append(images, img)
		case "Form":
			if entry.depth+1 > MaxFormDepth {
				continue
			}
			stack = pushXObjects(r, stack, sd.Dict["Resources"], entry.depth+1)
		}
	}

	return images
}

// pushXObjects pushes the /XObject entries of a resource dictionary so that
// they pop in natural name order
func pushXObjects(r Resolver, stack []xobjectEntry, resources types.Object, depth int) []xobjectEntry {
	res, ok := resolveDict(r, resources)
	if !ok {
		return stack
	}
	xobjects, ok := resolveDict(r, res["XObject"])
	if !ok {
		return stack
	}

	names := make([]string, 0, len(xobjects))
	for name := range xobjects {
		names = append(names, name)
	}
	sortNatural(names)

	for i := len(names) - 1; i >= 0; i-- {
		stack = append(stack, xobjectEntry{name: names[i], obj: xobjects[names[i]], depth: depth})
	}
	return stack
}

// PageResources returns the resource dictionary that applies to a page,
// following the /Parent chain for inherited resources
func PageResources(r Resolver, page types.Dict) types.Dict {
	visited := make(map[types.IndirectRef]bool)
	d := page
	for i := 0; i < maxParentDepth && d != nil; i++ {
		if res, ok := resolveDict(r, d["Resources"]); ok {
			return res
		}
		parent := d["Parent"]
		if ref, ok := asIndirectRef(parent); ok {
			if visited[ref] {
				return nil
			}
			visited[ref] = true
		}
		next, ok := resolveDict(r, parent)
		if !ok {
			return nil
		}
		d = next
	}
	return nil
}

func asIndirectRef(o types.Object) (types.IndirectRef, bool) {
	switch v := o.(type) {
	case types.IndirectRef:
		return v, true
	case *types.IndirectRef:
		if v != nil {
			return *v, true
		}
	}
	return types.IndirectRef{}, false
}

func deref(r Resolver, o types.Object) types.Object {
	if o == nil {
		return nil
	}
	if _, ok := asIndirectRef(o); !ok {
		return o
	}
	resolved, err := r.Dereference(o)
	if err != nil {
		return nil
	}
	return resolved
}

func resolveDict(r Resolver, o types.Object) (types.Dict, bool) {
	switch v := deref(r, o).(type) {
	case types.Dict:
		return v, true
	case *types.Dict:
		if v != nil {
			return *v, true
		}
	}
	return nil, false
}

func resolveStream(r Resolver, o types.Object) (types.StreamDict, bool) {
	switch v := deref(r, o).(type) {
	case types.StreamDict:
		return v, true
	case *types.StreamDict:
		if v != nil {
			return *v, true
		}
	}
	return types.StreamDict{}, false
}

func nameValue(r Resolver, o types.Object) string {
	if n, ok := deref(r, o).(types.Name); ok {
		return string(n)
	}
	return ""
}

func filterName(r Resolver, o types.Object) string {
	switch v := deref(r, o).(type) {
	case types.Name:
		return string(v)
	case types.Array:
		if len(v) > 0 {
			return nameValue(r, v[len(v)-1])
		}
	}
	return ""
}
