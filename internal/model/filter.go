package model

// ID is an entity identifier as exchanged with the listing backend.
// The backend serves ids as strings ("1", "2", "4" for listing types).
type ID string

// Listing type route families. TypeName is always one of these values.
const (
	TypeNameBuy      = "buy/properties-for-sale"
	TypeNameRent     = "rent/properties-for-rent"
	TypeNameProjects = "new-projects"
)

// Fixed listing type ids bound to each route family.
const (
	TypeIDBuy      ID = "1"
	TypeIDRent     ID = "2"
	TypeIDProjects ID = "4"
)

// FilterState is the canonical in-memory search criteria shared across
// search-results pages. All fields are optional; nil means "not set".
//
// RegionName and RegionNames are mutually exclusive representations of the
// selected region set: zero regions set neither, one sets RegionName, two or
// more set RegionNames. PropertyIDs always equals the set of ids of the
// selected entities of kind property.
type FilterState struct {
	Search         *string  `json:"search,omitempty"`
	TypeID         *ID      `json:"type_id,omitempty"`
	TypeName       *string  `json:"type_name,omitempty"`
	PropertyTypeID *ID      `json:"property_type_id,omitempty"`
	PropertyName   *string  `json:"property_name,omitempty"`
	PriceMin       *float64 `json:"price_min,omitempty"`
	PriceMax       *float64 `json:"price_max,omitempty"`
	BedroomMin     *int     `json:"bedroom_min,omitempty"`
	BedroomMax     *int     `json:"bedroom_max,omitempty"`
	AreaMin        *float64 `json:"area_min,omitempty"`
	AreaMax        *float64 `json:"area_max,omitempty"`
	DeveloperID    *ID      `json:"developer_id,omitempty"`
	DeveloperName  *string  `json:"developer_name,omitempty"`
	Sort           *string  `json:"sort,omitempty"`
	SortName       *string  `json:"sort_name,omitempty"`
	RegionName     *string  `json:"region_name,omitempty"`
	RegionNames    []string `json:"region_names,omitempty"`
	PropertyIDs    []ID     `json:"property_ids,omitempty"`
	IsSale         *bool    `json:"is_sale,omitempty"`
	IsFinish       *bool    `json:"is_finish,omitempty"`
}

// Clone returns a deep copy so callers can mutate the result freely.
func (f FilterState) Clone() FilterState {
	out := f
	if f.RegionNames != nil {
		out.RegionNames = append([]string(nil), f.RegionNames...)
	}
	if f.PropertyIDs != nil {
		out.PropertyIDs = append([]ID(nil), f.PropertyIDs...)
	}
	return out
}

// NavigationState is the inter-page contract bundle passed alongside a
// navigation: the full filter snapshot plus the selected entities, so the
// destination page can rehydrate without re-deriving everything from the URL.
type NavigationState struct {
	FilterState
	ValueSearch []SelectedEntity `json:"valueSearch,omitempty"`
}

// IsEmpty reports whether the bundle carries no state at all, in which case
// the URL parser falls back to interpreting the pathname.
func (n *NavigationState) IsEmpty() bool {
	if n == nil {
		return true
	}
	if len(n.ValueSearch) > 0 || len(n.RegionNames) > 0 || len(n.PropertyIDs) > 0 {
		return false
	}
	f := n.FilterState
	return f.Search == nil && f.TypeID == nil && f.TypeName == nil &&
		f.PropertyTypeID == nil && f.PropertyName == nil &&
		f.PriceMin == nil && f.PriceMax == nil &&
		f.BedroomMin == nil && f.BedroomMax == nil &&
		f.AreaMin == nil && f.AreaMax == nil &&
		f.DeveloperID == nil && f.DeveloperName == nil &&
		f.Sort == nil && f.SortName == nil &&
		f.RegionName == nil && f.IsSale == nil && f.IsFinish == nil
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// IDPtr returns a pointer to id.
func IDPtr(id ID) *ID { return &id }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }
