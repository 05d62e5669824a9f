package schema

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// RepairBioElements accepts a bare array, an object holding an "elements" (or "bioElements")
// array, or a single element object. Only id and order are repaired; every other field passes
// through untouched, so a link without a url stays without one. Ids are unique per list.
func RepairBioElements(v any) []BioElement {
	out := []BioElement{}
	seen := map[string]bool{}
	for i, item := range bioItems(v) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		el := repairBioElement(m, i)
		if seen[el.ID] {
			el.ID = uuid.NewString()
		}
		seen[el.ID] = true
		out = append(out, el)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Order < out[b].Order })
	return out
}

func bioItems(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		for _, key := range []string{"elements", "bioElements"} {
			if items, ok := t[key].([]any); ok {
				return items
			}
		}
		if _, ok := t["type"]; ok {
			return []any{t}
		}
	}
	return nil
}

func repairBioElement(m map[string]any, position int) BioElement {
	el := BioElement{
		Type:   BioElementType(stringOr(m["type"], "")),
		Fields: bioFields(m),
	}

	el.ID = canonicalUUID(m["id"])
	if el.ID == "" {
		el.ID = uuid.NewString()
	}

	el.Order = position
	if o, ok := bioOrder(m["order"]); ok {
		el.Order = o
	}
	return el
}

// canonicalUUID returns v in the hyphenated lower-case form, or "" if v is not a UUID. uuid.Parse
// also accepts the braced, urn and undashed spellings.
func canonicalUUID(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return ""
	}
	return u.String()
}

func bioOrder(v any) (int, bool) {
	o, ok := v.(float64)
	if !ok || o < 0 || o != math.Trunc(o) || o > math.MaxInt32 {
		return 0, false
	}
	return int(o), true
}

// bioFields copies every key except id and order. A non-string type is kept here as generated.
func bioFields(m map[string]any) map[string]any {
	var out map[string]any
	for k, v := range m {
		switch k {
		case "id", "order":
			continue
		case "type":
			if _, ok := v.(string); ok {
				continue
			}
		}
		if out == nil {
			out = make(map[string]any, len(m))
		}
		out[k] = v
	}
	return out
}
