package model

// PriceOptions holds the selectable price bounds served by the backend.
type PriceOptions struct {
	MinOptions []float64 `json:"minOptions"`
	MaxOptions []float64 `json:"maxOptions"`
	Currency   string    `json:"currency,omitempty"`
}

// BedroomOptions holds the selectable bedroom count bounds.
type BedroomOptions struct {
	MinOptions []int `json:"minOptions"`
	MaxOptions []int `json:"maxOptions"`
}

// AreaOptions holds the selectable area bounds.
type AreaOptions struct {
	MinOptions []float64 `json:"minOptions"`
	MaxOptions []float64 `json:"maxOptions"`
	Unit       string    `json:"unit,omitempty"`
}

// PropertyType is one entry of the closed property type list (Apartment,
// Villa, ...). The URL parser resolves type slugs back to these records.
type PropertyType struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// FilterMetadata is the read-only filter dimension bundle fetched from the
// backend and held in the metadata cache.
type FilterMetadata struct {
	Prices        PriceOptions   `json:"prices"`
	Bedrooms      BedroomOptions `json:"bedrooms"`
	Areas         AreaOptions    `json:"areas"`
	PropertyTypes []PropertyType `json:"property_types"`
}

// Developer is one entry of the developer filter list.
type Developer struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Region is one entry of the region list used for client-side substring
// suggestion filtering.
type Region struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}
