package identity

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
)

// UnknownName is the bucket for child ASINs without a normalized name.
const UnknownName = "Unknown"

// Entry is the resolved identity of one child ASIN.
type Entry struct {
	ChildASIN      string `json:"child_asin"`
	ParentASIN     string `json:"parent_asin,omitempty"`
	NormalizedName string `json:"normalized_name"`
	DisplayName    string `json:"display_name"`
	VariantName    string `json:"variant_name,omitempty"`
	Title          string `json:"title,omitempty"`
	SellerID       string `json:"seller_id"`
	SellerName     string `json:"seller_name,omitempty"`
	Marketplace    string `json:"marketplace,omitempty"`
}

// Child is one variant listed under a parent.
type Child struct {
	ChildASIN   string `json:"child_asin"`
	ParentASIN  string `json:"parent_asin,omitempty"`
	VariantName string `json:"variant_name,omitempty"`
	Title       string `json:"title,omitempty"`
}

// Parent groups every child ASIN sharing a normalized name.
type Parent struct {
	ParentName  string   `json:"parent_name"`
	DisplayName string   `json:"display_name"`
	ParentASINs []string `json:"parent_asins,omitempty"`
	Children    []Child  `json:"children"`
	ChildCount  int      `json:"child_count"`
}

// Hierarchy is the immutable child → parent → normalized name tree built
// from one ASIN mapping snapshot.
type Hierarchy struct {
	parents   []Parent
	byExact   map[string]int
	byFolded  map[string]int
	byChild   map[string]Entry
	conflicts int
}

// Build groups mapping rows by normalized name. Rows without a child ASIN are
// skipped; when a child ASIN repeats, the first row wins.
func Build(rows []snapshot.IdentityRow) *Hierarchy {
	h := &Hierarchy{
		byExact:  make(map[string]int),
		byFolded: make(map[string]int),
		byChild:  make(map[string]Entry, len(rows)),
	}

	grouped := make(map[string]*Parent)
	for _, row := range rows {
		asin := strings.TrimSpace(row.ChildASIN)
		if asin == "" {
			continue
		}
		entry := newEntry(asin, row)
		if existing, ok := h.byChild[asin]; ok {
			if existing.NormalizedName != entry.NormalizedName {
				h.conflicts++
			}
			continue
		}
		h.byChild[asin] = entry

		parent, ok := grouped[entry.NormalizedName]
		if !ok {
			parent = &Parent{ParentName: entry.NormalizedName, DisplayName: entry.DisplayName}
			grouped[entry.NormalizedName] = parent
		}
		parent.Children = append(parent.Children, Child{
			ChildASIN:   asin,
			ParentASIN:  entry.ParentASIN,
			VariantName: entry.VariantName,
			Title:       entry.Title,
		})
		if entry.ParentASIN != "" {
			parent.ParentASINs = append(parent.ParentASINs, entry.ParentASIN)
		}
	}

	names := lo.Keys(grouped)
	sort.Strings(names)
	h.parents = make([]Parent, 0, len(names))
	for _, name := range names {
		parent := grouped[name]
		sort.Slice(parent.Children, func(i, j int) bool {
			return parent.Children[i].ChildASIN < parent.Children[j].ChildASIN
		})
		parent.ParentASINs = lo.Uniq(parent.ParentASINs)
		sort.Strings(parent.ParentASINs)
		parent.ChildCount = len(parent.Children)

		h.parents = append(h.parents, *parent)
	}

	// Normalized names index before display names; the first parent to claim
	// a key keeps it.
	for idx, parent := range h.parents {
		h.index(parent.ParentName, idx)
	}
	for idx, parent := range h.parents {
		h.index(parent.DisplayName, idx)
	}
	return h
}

func (h *Hierarchy) index(name string, idx int) {
	if name == "" {
		return
	}
	if _, taken := h.byExact[name]; !taken {
		h.byExact[name] = idx
	}
	folded := strings.ToLower(name)
	if _, taken := h.byFolded[folded]; !taken {
		h.byFolded[folded] = idx
	}
}

func newEntry(asin string, row snapshot.IdentityRow) Entry {
	name := strings.TrimSpace(row.NormalizedName)
	if name == "" {
		name = UnknownName
	}
	display := strings.TrimSpace(row.DisplayName)
	if display == "" {
		display = name
	}
	return Entry{
		ChildASIN:      asin,
		ParentASIN:     strings.TrimSpace(row.ParentASIN),
		NormalizedName: name,
		DisplayName:    display,
		VariantName:    strings.TrimSpace(row.VariantName),
		Title:          strings.TrimSpace(row.Title),
		SellerID:       strings.TrimSpace(row.SellerID),
		SellerName:     strings.TrimSpace(row.SellerName),
		Marketplace:    strings.TrimSpace(row.Marketplace),
	}
}

// Lookup returns the identity of a child ASIN.
func (h *Hierarchy) Lookup(childASIN string) (Entry, bool) {
	if h == nil {
		return Entry{}, false
	}
	entry, ok := h.byChild[strings.TrimSpace(childASIN)]
	return entry, ok
}

// Parents returns the tree sorted by parent name. The result is a copy.
func (h *Hierarchy) Parents() []Parent {
	if h == nil {
		return nil
	}
	out := make([]Parent, len(h.parents))
	for i, parent := range h.parents {
		parent.Children = append([]Child(nil), parent.Children...)
		parent.ParentASINs = append([]string(nil), parent.ParentASINs...)
		out[i] = parent
	}
	return out
}

// Parent finds a parent by normalized or display name. An exact match wins
// over a case-insensitive one.
func (h *Hierarchy) Parent(name string) (Parent, bool) {
	if h == nil {
		return Parent{}, false
	}
	name = strings.TrimSpace(name)
	idx, ok := h.byExact[name]
	if !ok {
		idx, ok = h.byFolded[strings.ToLower(name)]
	}
	if !ok {
		return Parent{}, false
	}
	return h.parents[idx], true
}

// Len is the number of distinct child ASINs.
func (h *Hierarchy) Len() int {
	if h == nil {
		return 0
	}
	return len(h.byChild)
}

// Conflicts counts repeated child ASINs that disagreed on their normalized name.
func (h *Hierarchy) Conflicts() int {
	if h == nil {
		return 0
	}
	return h.conflicts
}

// ChildASINs lists every known child ASIN, sorted.
func (h *Hierarchy) ChildASINs() []string {
	if h == nil {
		return nil
	}
	asins := lo.Keys(h.byChild)
	sort.Strings(asins)
	return asins
}
