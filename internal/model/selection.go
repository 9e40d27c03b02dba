package model

// EntityKind discriminates the two kinds of entities a user can pin in the
// multi-search box.
type EntityKind string

const (
	KindProperty EntityKind = "property"
	KindRegion   EntityKind = "region"
)

// Valid reports whether k is one of the known kinds.
func (k EntityKind) Valid() bool {
	return k == KindProperty || k == KindRegion
}

// SelectedEntity is a user-picked chip in the multi-search box: either a
// matched property or a matched region, discriminated by Kind. The echoed
// display fields come from the underlying backend record.
type SelectedEntity struct {
	ID       ID         `json:"id"`
	Kind     EntityKind `json:"type"`
	Name     string     `json:"name"`
	Price    *float64   `json:"price,omitempty"`
	ImageURL *string    `json:"image_url,omitempty"`
}

// UniqueID is the composite list key. A property and a region sharing a
// numeric id never collide because the kind is part of the key.
func (e SelectedEntity) UniqueID() string {
	return string(e.Kind) + "_" + string(e.ID)
}
