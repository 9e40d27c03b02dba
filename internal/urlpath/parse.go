package urlpath

import (
	"regexp"
	"strconv"
	"strings"

	"portal/internal/model"
)

// Encoded range filter segments. The patterns mirror what Build emits so a
// built path always parses back.
var (
	reBedroomRange = regexp.MustCompile(`^with-(\d+)-to-(\d+)-bedrooms$`)
	reBedroomMin   = regexp.MustCompile(`^more-than-(\d+)-bedrooms$`)
	reBedroomMax   = regexp.MustCompile(`^under-(\d+)-bedrooms$`)
	rePriceRange   = regexp.MustCompile(`^between-(\d+(?:\.\d+)?)-(\d+(?:\.\d+)?)$`)
	rePriceMin     = regexp.MustCompile(`^above-(\d+(?:\.\d+)?)$`)
	rePriceMax     = regexp.MustCompile(`^below-(\d+(?:\.\d+)?)$`)
)

// typeNameByBase is the reverse of basePaths, keyed by the two leading
// route segments joined with "/".
var typeNameByBase = func() map[string]string {
	m := make(map[string]string, len(basePaths))
	for name, base := range basePaths {
		m[strings.Trim(base, "/")] = name
	}
	return m
}()

// Parse translates a pathname plus optional navigation state into a filter
// state.
//
// When nav carries state, its fields win wholesale: this is how back
// navigation restores exact prior filters without re-deriving them from the
// URL. Otherwise the pathname is interpreted against the canonical grammar:
// the two leading segments select the route family, segment three is tried as
// a property-type slug against meta, and every remaining segment is matched
// against the closed range grammar. A segment that matches nothing is
// ignored; Parse never fails.
//
// fixedTypeID is always applied last, overriding anything derived from the
// URL, because each listing page is bound to exactly one type.
func Parse(pathname string, nav *model.NavigationState, meta *model.FilterMetadata, developers []model.Developer, fixedTypeID model.ID) model.FilterState {
	if !nav.IsEmpty() {
		f := nav.FilterState.Clone()
		f.TypeID = model.IDPtr(fixedTypeID)
		return f
	}

	var f model.FilterState
	segs := splitPath(pathname)

	if len(segs) >= 2 {
		if name, ok := typeNameByBase[segs[0]+"/"+segs[1]]; ok {
			f.TypeName = model.StrPtr(name)
		}
	}
	if f.TypeName != nil && len(segs) >= 3 {
		if pt, ok := resolvePropertyType(segs[2], meta); ok {
			f.PropertyTypeID = model.IDPtr(pt.ID)
			f.PropertyName = model.StrPtr(pt.Name)
		}
		for _, seg := range segs[2:] {
			applySegment(&f, seg, developers)
		}
	}

	f.TypeID = model.IDPtr(fixedTypeID)
	return f
}

func splitPath(pathname string) []string {
	trimmed := strings.Trim(pathname, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// resolvePropertyType reverse-looks-up a slug against the cached property
// type list.
func resolvePropertyType(seg string, meta *model.FilterMetadata) (model.PropertyType, bool) {
	if meta == nil {
		return model.PropertyType{}, false
	}
	for _, pt := range meta.PropertyTypes {
		if Slugify(pt.Name) == seg {
			return pt, true
		}
	}
	return model.PropertyType{}, false
}

// applySegment matches one path segment against the range grammar and the
// developer slug list, mutating f on a hit. First hit per field family wins.
func applySegment(f *model.FilterState, seg string, developers []model.Developer) {
	if f.BedroomMin == nil && f.BedroomMax == nil {
		if m := reBedroomRange.FindStringSubmatch(seg); m != nil {
			f.BedroomMin = model.IntPtr(mustInt(m[1]))
			f.BedroomMax = model.IntPtr(mustInt(m[2]))
			return
		}
		if m := reBedroomMin.FindStringSubmatch(seg); m != nil {
			f.BedroomMin = model.IntPtr(mustInt(m[1]))
			return
		}
		if m := reBedroomMax.FindStringSubmatch(seg); m != nil {
			f.BedroomMax = model.IntPtr(mustInt(m[1]))
			return
		}
	}
	if f.PriceMin == nil && f.PriceMax == nil {
		if m := rePriceRange.FindStringSubmatch(seg); m != nil {
			f.PriceMin = model.Float64Ptr(mustFloat(m[1]))
			f.PriceMax = model.Float64Ptr(mustFloat(m[2]))
			return
		}
		if m := rePriceMin.FindStringSubmatch(seg); m != nil {
			f.PriceMin = model.Float64Ptr(mustFloat(m[1]))
			return
		}
		if m := rePriceMax.FindStringSubmatch(seg); m != nil {
			f.PriceMax = model.Float64Ptr(mustFloat(m[1]))
			return
		}
	}
	if f.DeveloperID == nil {
		for _, d := range developers {
			if Slugify(d.Name) == seg {
				f.DeveloperID = model.IDPtr(d.ID)
				f.DeveloperName = model.StrPtr(d.Name)
				return
			}
		}
	}
}

// mustInt and mustFloat only ever see digit strings captured by the
// patterns above, so the error paths are unreachable.
func mustInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func mustFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
