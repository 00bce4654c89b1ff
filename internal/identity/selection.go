package identity

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Selection names the entities a query is scoped to. When both lists are
// empty every child ASIN is selected; otherwise the union of the listed child
// ASINs and the children of the listed parents is.
type Selection struct {
	ChildASINs  []string `json:"child_asins,omitempty"`
	ParentNames []string `json:"parent_names,omitempty"`
}

// All selects everything.
func All() Selection {
	return Selection{}
}

// IsAll reports whether the selection is unrestricted.
func (s Selection) IsAll() bool {
	return len(s.ChildASINs) == 0 && len(s.ParentNames) == 0
}

// Resolution is a selection resolved against a hierarchy.
type Resolution struct {
	all     bool
	asins   map[string]struct{}
	dropped []string
}

// Resolve expands a selection to concrete child ASINs. Unknown ASINs and
// parent names are dropped and reported through Dropped.
func (h *Hierarchy) Resolve(sel Selection) Resolution {
	if sel.IsAll() {
		return Resolution{all: true}
	}

	res := Resolution{asins: make(map[string]struct{})}
	for _, raw := range sel.ChildASINs {
		asin := strings.TrimSpace(raw)
		if _, ok := h.Lookup(asin); ok {
			res.asins[asin] = struct{}{}
			continue
		}
		res.dropped = append(res.dropped, raw)
	}
	for _, raw := range sel.ParentNames {
		parent, ok := h.Parent(raw)
		if !ok {
			res.dropped = append(res.dropped, raw)
			continue
		}
		for _, child := range parent.Children {
			res.asins[child.ChildASIN] = struct{}{}
		}
	}
	res.dropped = lo.Uniq(res.dropped)
	return res
}

// All reports whether every ASIN, mapped or not, is included.
func (r Resolution) All() bool {
	return r.all
}

// Contains reports whether a fact row for childASIN is in scope.
func (r Resolution) Contains(childASIN string) bool {
	if r.all {
		return true
	}
	_, ok := r.asins[childASIN]
	return ok
}

// Empty reports whether the resolution can match nothing.
func (r Resolution) Empty() bool {
	return !r.all && len(r.asins) == 0
}

// ASINs lists the resolved child ASINs, sorted. Nil for an unrestricted resolution.
func (r Resolution) ASINs() []string {
	if r.all {
		return nil
	}
	out := lo.Keys(r.asins)
	sort.Strings(out)
	return out
}

// Dropped lists the selection entries that matched nothing.
func (r Resolution) Dropped() []string {
	return append([]string(nil), r.dropped...)
}
