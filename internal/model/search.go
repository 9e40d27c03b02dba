package model

// SearchRequest is the body sent to the backend property search endpoint.
// The filter fields are the FilterState wire shape; the backend injects no
// defaults, so the caller decides pagination.
type SearchRequest struct {
	FilterState
	Page    int `json:"page,omitempty"`
	PerPage int `json:"per_page,omitempty"`
}

// Listing is a matched property as returned by the backend search endpoint.
type Listing struct {
	ID            ID       `json:"id"`
	Name          string   `json:"name"`
	Price         *float64 `json:"price,omitempty"`
	Bedrooms      *int     `json:"bedrooms,omitempty"`
	Bathrooms     *int     `json:"bathrooms,omitempty"`
	AreaSqm       *float64 `json:"area_sqm,omitempty"`
	RegionName    *string  `json:"region_name,omitempty"`
	DeveloperName *string  `json:"developer_name,omitempty"`
	ImageURL      *string  `json:"image_url,omitempty"`
}

// SearchResponse is the backend search result with pagination metadata.
type SearchResponse struct {
	Listings   []Listing `json:"data"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
	TotalPages int       `json:"total_pages"`
}

// SubmitResult is what a successful submit hands back: the canonical
// SEO path plus the navigation snapshot the destination rehydrates from.
type SubmitResult struct {
	Path       string          `json:"path"`
	SnapshotID string          `json:"snapshot_id,omitempty"`
	State      NavigationState `json:"state"`
}
