package service

import (
	"context"
	"strings"
	"time"

	"portal/internal/cache"
	"portal/internal/model"
	"portal/internal/state"
	"portal/internal/urlpath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SearchBackend is the slice of the listing backend the orchestrator needs.
type SearchBackend interface {
	SearchProperties(ctx context.Context, req model.SearchRequest) (*model.SearchResponse, error)
}

// SnapshotStore persists submitted navigation snapshots and the search log.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, id string, nav model.NavigationState) error
	GetSnapshot(ctx context.Context, id string) (*model.NavigationState, error)
	LogSearch(ctx context.Context, sessionID, query string, filters model.FilterState, resultCount, tookMs int) error
}

// Orchestrator wires filter state, selection list, suggestion search and
// canonical URL building together for a session.
type Orchestrator struct {
	backend SearchBackend
	meta    *cache.Store
	store   SnapshotStore
	log     zerolog.Logger
}

// NewOrchestrator creates a search orchestrator.
func NewOrchestrator(backend SearchBackend, meta *cache.Store, store SnapshotStore, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		meta:    meta,
		store:   store,
		log:     log,
	}
}

// RefreshSuggestions issues a suggestion search for the session's current
// criteria and installs the result as the session's options.
//
// The request body is the filter state stripped of PropertyIDs, with
// is_sale=true injected for every family except new-projects. Each call takes
// a fresh generation token; a response whose token has been superseded by a
// newer call is dropped, so rapid consecutive refreshes cannot install stale
// options. A backend failure degrades to empty options rather than an error.
func (o *Orchestrator) RefreshSuggestions(ctx context.Context, sess *state.Session) []model.Listing {
	values := sess.Values()
	generation := sess.NextGeneration()

	req := model.SearchRequest{FilterState: values.Clone()}
	req.PropertyIDs = nil
	if values.TypeName == nil || *values.TypeName != model.TypeNameProjects {
		req.IsSale = model.BoolPtr(true)
	}

	started := time.Now()
	resp, err := o.backend.SearchProperties(ctx, req)
	if err != nil {
		o.log.Warn().Err(err).Str("session", sess.ID()).Msg("suggestion search failed")
		sess.SetOptions(generation, nil)
		return nil
	}

	if !sess.SetOptions(generation, resp.Listings) {
		// A newer request took over while this one was in flight.
		return sess.Options()
	}

	query := ""
	if values.Search != nil {
		query = *values.Search
	}
	tookMs := int(time.Since(started).Milliseconds())
	go func() {
		if err := o.store.LogSearch(context.Background(), sess.ID(), query, values, resp.Total, tookMs); err != nil {
			o.log.Warn().Err(err).Msg("search log write failed")
		}
	}()

	return resp.Listings
}

// RegionMatches filters the cached region list by case-insensitive substring
// match against the session's free-text search. An empty search matches
// nothing.
func (o *Orchestrator) RegionMatches(ctx context.Context, sess *state.Session) []model.Region {
	values := sess.Values()
	if values.Search == nil {
		return nil
	}
	needle := strings.ToLower(strings.TrimSpace(*values.Search))
	if needle == "" {
		return nil
	}
	regions, err := o.meta.Regions(ctx)
	if err != nil {
		o.log.Warn().Err(err).Msg("region list unavailable")
		return nil
	}
	var matched []model.Region
	for _, r := range regions {
		if strings.Contains(strings.ToLower(r.Name), needle) {
			matched = append(matched, r)
		}
	}
	return matched
}

// Submit finalizes the session's search: it renders the canonical path,
// bundles the navigation snapshot and persists it for rehydration.
//
// Both TypeName and TypeID must be set; otherwise the submit is silently
// ignored and ok is false. A snapshot persistence failure is logged but does
// not block the navigation itself.
func (o *Orchestrator) Submit(ctx context.Context, sess *state.Session) (result *model.SubmitResult, ok bool) {
	values := sess.Values()
	if values.TypeName == nil || values.TypeID == nil {
		return nil, false
	}

	nav := sess.Snapshot()
	path := urlpath.Build(values)

	snapshotID := uuid.NewString()
	if err := o.store.SaveSnapshot(ctx, snapshotID, nav); err != nil {
		o.log.Error().Err(err).Str("session", sess.ID()).Msg("snapshot persistence failed")
		snapshotID = ""
	}

	return &model.SubmitResult{
		Path:       path,
		SnapshotID: snapshotID,
		State:      nav,
	}, true
}

// Resolve translates a pathname and optional snapshot into a filter state,
// loading metadata through the cache. Page-specific flags (is_sale,
// is_finish) are the caller's to merge.
func (o *Orchestrator) Resolve(ctx context.Context, pathname, snapshotID string, fixedTypeID model.ID) model.FilterState {
	var nav *model.NavigationState
	if snapshotID != "" {
		loaded, err := o.store.GetSnapshot(ctx, snapshotID)
		if err != nil {
			o.log.Warn().Err(err).Str("snapshot", snapshotID).Msg("snapshot lookup failed")
		} else {
			nav = loaded
		}
	}

	meta, err := o.meta.Filter(ctx)
	if err != nil {
		o.log.Warn().Err(err).Msg("filter metadata unavailable, parsing without type resolution")
		meta = nil
	}
	developers, err := o.meta.Developers(ctx)
	if err != nil {
		o.log.Warn().Err(err).Msg("developer metadata unavailable")
		developers = nil
	}

	return urlpath.Parse(pathname, nav, meta, developers, fixedTypeID)
}

// Snapshot exposes a stored navigation snapshot, or nil when unknown.
func (o *Orchestrator) Snapshot(ctx context.Context, id string) (*model.NavigationState, error) {
	return o.store.GetSnapshot(ctx, id)
}
