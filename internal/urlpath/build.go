package urlpath

import (
	"fmt"
	"strconv"
	"strings"

	"portal/internal/model"
)

// basePaths maps each listing type name to the fixed base of its route
// family. The grammar only covers these three families.
var basePaths = map[string]string{
	model.TypeNameBuy:      "/buy/properties-for-sale",
	model.TypeNameRent:     "/rent/properties-for-rent",
	model.TypeNameProjects: "/projects/new-projects",
}

// Build renders the canonical SEO path for the given filter state.
//
// Segments are appended in fixed order: property-type slug, one bedroom-range
// segment, one price-range segment. A segment is omitted entirely when both
// of its source fields are unset; at most one segment per range is ever
// emitted. Criteria outside the grammar (region, developer, sort, free-text
// search) are not encoded; they travel via NavigationState only.
//
// Returns "" when TypeName is unset or not one of the known route families.
func Build(f model.FilterState) string {
	if f.TypeName == nil {
		return ""
	}
	base, ok := basePaths[*f.TypeName]
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(base)
	if f.PropertyName != nil {
		if slug := Slugify(*f.PropertyName); slug != "" {
			b.WriteString("/")
			b.WriteString(slug)
		}
	}
	if seg := bedroomSegment(f.BedroomMin, f.BedroomMax); seg != "" {
		b.WriteString("/")
		b.WriteString(seg)
	}
	if seg := priceSegment(f.PriceMin, f.PriceMax); seg != "" {
		b.WriteString("/")
		b.WriteString(seg)
	}
	return b.String()
}

// bedroomSegment picks one of the three bedroom shapes, or "" when neither
// bound is set.
func bedroomSegment(min, max *int) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("with-%d-to-%d-bedrooms", *min, *max)
	case min != nil:
		return fmt.Sprintf("more-than-%d-bedrooms", *min)
	case max != nil:
		return fmt.Sprintf("under-%d-bedrooms", *max)
	}
	return ""
}

// priceSegment picks one of the three price shapes, or "" when neither bound
// is set.
func priceSegment(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		return "between-" + formatPrice(*min) + "-" + formatPrice(*max)
	case min != nil:
		return "above-" + formatPrice(*min)
	case max != nil:
		return "below-" + formatPrice(*max)
	}
	return ""
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
