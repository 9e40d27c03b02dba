package state

import (
	"errors"
	"sync"
	"time"

	"portal/internal/model"
)

// ErrMissingEntityID is returned when a selection is added without an id.
// A keyless entity would produce a degenerate list key, so it is rejected.
var ErrMissingEntityID = errors.New("selected entity has no id")

// ErrUnknownEntityKind is returned when a selection carries a kind outside
// the property/region union.
var ErrUnknownEntityKind = errors.New("unknown selected entity kind")

// Updater transforms the previous filter state into the next one. The result
// replaces the state wholesale; callers that want a partial update copy the
// previous value themselves.
type Updater func(prev model.FilterState) model.FilterState

// Session holds one search session's filter state, its ordered selected
// entity list, and the current suggestion options. All methods are safe for
// concurrent use.
type Session struct {
	id string

	mu         sync.Mutex
	values     model.FilterState
	selected   []model.SelectedEntity
	options    []model.Listing
	generation uint64
	lastActive time.Time
}

func newSession(id string) *Session {
	return &Session{id: id, lastActive: time.Now()}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Values returns a copy of the current filter state.
func (s *Session) Values() model.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Clone()
}

// SetValues replaces the filter state wholesale.
func (s *Session) SetValues(next model.FilterState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.values = next.Clone()
}

// UpdateValues applies fn to the current state and replaces it with the
// result, atomically with respect to other mutations.
func (s *Session) UpdateValues(fn Updater) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.values = fn(s.values.Clone()).Clone()
}

// Selections returns a copy of the selected entity list in insertion order.
func (s *Session) Selections() []model.SelectedEntity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SelectedEntity(nil), s.selected...)
}

// AddSelection appends an entity to the selection list.
//
// Adding an entity whose kind and id are already present is a no-op. On a
// real add the free-text search field is cleared (picking a suggestion
// empties the query box) and the derived filter fields are recomputed:
// PropertyIDs from the property entries, RegionName/RegionNames from the
// region entries.
func (s *Session) AddSelection(e model.SelectedEntity) error {
	if e.ID == "" {
		return ErrMissingEntityID
	}
	if !e.Kind.Valid() {
		return ErrUnknownEntityKind
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	for _, cur := range s.selected {
		if cur.Kind == e.Kind && cur.ID == e.ID {
			return nil
		}
	}
	s.selected = append(s.selected, e)
	s.values.Search = nil
	s.syncDerived()
	return nil
}

// RemoveSelection drops the entry with the given composite key and recomputes
// the derived filter fields. Removing an absent key is a no-op.
func (s *Session) RemoveSelection(uniqueID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	kept := s.selected[:0]
	for _, cur := range s.selected {
		if cur.UniqueID() != uniqueID {
			kept = append(kept, cur)
		}
	}
	s.selected = kept
	s.syncDerived()
}

// ClearSelections empties the list, e.g. on a fresh visit that is not
// restoring a prior search.
func (s *Session) ClearSelections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.selected = nil
	s.syncDerived()
}

// Restore rehydrates the session from a navigation snapshot.
func (s *Session) Restore(nav model.NavigationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.values = nav.FilterState.Clone()
	s.selected = append([]model.SelectedEntity(nil), nav.ValueSearch...)
	s.syncDerived()
}

// Snapshot bundles the current state into the inter-page contract shape.
func (s *Session) Snapshot() model.NavigationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.NavigationState{
		FilterState: s.values.Clone(),
		ValueSearch: append([]model.SelectedEntity(nil), s.selected...),
	}
}

// syncDerived recomputes PropertyIDs and the region fields from the selection
// list. The selection list is the single source of truth; the filter fields
// are projections. The old region fields are always dropped before the new
// shape is assigned: zero regions leaves both unset, one sets the singular
// field, two or more set the plural one.
func (s *Session) syncDerived() {
	var ids []model.ID
	var regions []string
	for _, cur := range s.selected {
		switch cur.Kind {
		case model.KindProperty:
			ids = append(ids, cur.ID)
		case model.KindRegion:
			regions = append(regions, cur.Name)
		}
	}
	s.values.PropertyIDs = ids
	s.values.RegionName = nil
	s.values.RegionNames = nil
	switch len(regions) {
	case 0:
	case 1:
		s.values.RegionName = model.StrPtr(regions[0])
	default:
		s.values.RegionNames = regions
	}
}

// NextGeneration marks the start of a new suggestion request and returns its
// token. A response is only applied while its token is still the latest.
func (s *Session) NextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.generation++
	return s.generation
}

// SetOptions installs suggestion results for the given generation. Stale
// generations are dropped; the return value reports whether the write took.
func (s *Session) SetOptions(generation uint64, options []model.Listing) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}
	s.options = options
	return true
}

// Options returns the current suggestion options.
func (s *Session) Options() []model.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Listing(nil), s.options...)
}

// LastActive returns the time of the most recent mutation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}
