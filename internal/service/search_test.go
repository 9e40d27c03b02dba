package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"portal/internal/cache"
	"portal/internal/model"
	"portal/internal/state"

	"github.com/rs/zerolog"
)

type fakeBackend struct {
	mu       sync.Mutex
	requests []model.SearchRequest
	respond  func(req model.SearchRequest) (*model.SearchResponse, error)
}

func (f *fakeBackend) SearchProperties(_ context.Context, req model.SearchRequest) (*model.SearchResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(req)
	}
	return &model.SearchResponse{}, nil
}

func (f *fakeBackend) lastRequest(t *testing.T) model.SearchRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("no backend request captured")
	}
	return f.requests[len(f.requests)-1]
}

type fakeStore struct {
	mu        sync.Mutex
	snapshots map[string]model.NavigationState
	saveErr   error
	logged    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{snapshots: make(map[string]model.NavigationState)}
}

func (f *fakeStore) SaveSnapshot(_ context.Context, id string, nav model.NavigationState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snapshots[id] = nav
	return nil
}

func (f *fakeStore) GetSnapshot(_ context.Context, id string) (*model.NavigationState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	nav, ok := f.snapshots[id]
	if !ok {
		return nil, nil
	}
	return &nav, nil
}

func (f *fakeStore) LogSearch(_ context.Context, _, _ string, _ model.FilterState, _, _ int) error {
	f.mu.Lock()
	f.logged++
	f.mu.Unlock()
	return nil
}

type fakeSource struct {
	meta       *model.FilterMetadata
	developers []model.Developer
	regions    []model.Region
}

func (f *fakeSource) FilterMetadata(context.Context) (*model.FilterMetadata, error) {
	if f.meta == nil {
		return nil, errors.New("no metadata")
	}
	return f.meta, nil
}

func (f *fakeSource) Developers(context.Context) ([]model.Developer, error) {
	return f.developers, nil
}

func (f *fakeSource) Regions(context.Context) ([]model.Region, error) {
	return f.regions, nil
}

func newTestOrchestrator(backend SearchBackend, source *fakeSource, store SnapshotStore) *Orchestrator {
	if source == nil {
		source = &fakeSource{}
	}
	meta := cache.NewStore(source, time.Minute, zerolog.Nop())
	return NewOrchestrator(backend, meta, store, zerolog.Nop())
}

func newSession() *state.Session {
	return state.NewManager(time.Hour).Create()
}

func TestRefreshSuggestions_RequestShape(t *testing.T) {
	backend := &fakeBackend{}
	orch := newTestOrchestrator(backend, nil, newFakeStore())
	sess := newSession()
	sess.SetValues(model.FilterState{
		TypeName:    model.StrPtr(model.TypeNameBuy),
		TypeID:      model.IDPtr("1"),
		Search:      model.StrPtr("marina"),
		PropertyIDs: []model.ID{"42", "43"},
	})

	orch.RefreshSuggestions(context.Background(), sess)

	req := backend.lastRequest(t)
	if req.PropertyIDs != nil {
		t.Errorf("request PropertyIDs = %v, want stripped", req.PropertyIDs)
	}
	if req.IsSale == nil || !*req.IsSale {
		t.Errorf("request IsSale = %v, want injected true for buy", req.IsSale)
	}
	if req.Search == nil || *req.Search != "marina" {
		t.Errorf("request Search = %v, want marina", req.Search)
	}
}

func TestRefreshSuggestions_NoSaleInjectionForProjects(t *testing.T) {
	backend := &fakeBackend{}
	orch := newTestOrchestrator(backend, nil, newFakeStore())
	sess := newSession()
	sess.SetValues(model.FilterState{
		TypeName: model.StrPtr(model.TypeNameProjects),
		TypeID:   model.IDPtr("4"),
	})

	orch.RefreshSuggestions(context.Background(), sess)

	if req := backend.lastRequest(t); req.IsSale != nil {
		t.Errorf("request IsSale = %v, want untouched for new-projects", *req.IsSale)
	}
}

func TestRefreshSuggestions_InstallsOptions(t *testing.T) {
	backend := &fakeBackend{
		respond: func(model.SearchRequest) (*model.SearchResponse, error) {
			return &model.SearchResponse{
				Listings: []model.Listing{{ID: "42", Name: "Sea View Tower"}},
				Total:    1,
			}, nil
		},
	}
	orch := newTestOrchestrator(backend, nil, newFakeStore())
	sess := newSession()

	got := orch.RefreshSuggestions(context.Background(), sess)

	if len(got) != 1 || got[0].ID != "42" {
		t.Errorf("RefreshSuggestions() = %v, want the backend listings", got)
	}
	if options := sess.Options(); len(options) != 1 {
		t.Errorf("session options = %v, want the backend listings installed", options)
	}
}

func TestRefreshSuggestions_FailureDegradesToEmpty(t *testing.T) {
	backend := &fakeBackend{
		respond: func(model.SearchRequest) (*model.SearchResponse, error) {
			return nil, errors.New("backend down")
		},
	}
	orch := newTestOrchestrator(backend, nil, newFakeStore())
	sess := newSession()
	sess.SetOptions(sess.NextGeneration(), []model.Listing{{ID: "stale"}})

	got := orch.RefreshSuggestions(context.Background(), sess)

	if got != nil {
		t.Errorf("RefreshSuggestions() = %v, want nil on failure", got)
	}
	if options := sess.Options(); len(options) != 0 {
		t.Errorf("session options = %v, want cleared on failure", options)
	}
}

// A response that was overtaken by a newer request must not clobber the
// newer request's options.
func TestRefreshSuggestions_DropsOvertakenResponse(t *testing.T) {
	sess := newSession()
	backend := &fakeBackend{
		respond: func(req model.SearchRequest) (*model.SearchResponse, error) {
			// While this response is "in flight" a newer request starts and
			// completes.
			gen := sess.NextGeneration()
			sess.SetOptions(gen, []model.Listing{{ID: "fresh"}})
			return &model.SearchResponse{Listings: []model.Listing{{ID: "stale"}}}, nil
		},
	}
	orch := newTestOrchestrator(backend, nil, newFakeStore())

	got := orch.RefreshSuggestions(context.Background(), sess)

	options := sess.Options()
	if len(options) != 1 || options[0].ID != "fresh" {
		t.Errorf("session options = %v, want the fresh response preserved", options)
	}
	if len(got) != 1 || got[0].ID != "fresh" {
		t.Errorf("RefreshSuggestions() = %v, want the current options, not the stale response", got)
	}
}

func TestRegionMatches(t *testing.T) {
	source := &fakeSource{regions: []model.Region{
		{ID: "1", Name: "Marina Bay"},
		{ID: "2", Name: "Palm District"},
		{ID: "3", Name: "Old Marina"},
	}}
	orch := newTestOrchestrator(&fakeBackend{}, source, newFakeStore())

	tests := []struct {
		name   string
		search *string
		want   []model.ID
	}{
		{
			name:   "substring case-insensitive",
			search: model.StrPtr("MARINA"),
			want:   []model.ID{"1", "3"},
		},
		{
			name:   "no match",
			search: model.StrPtr("desert"),
			want:   nil,
		},
		{
			name:   "empty search matches nothing",
			search: model.StrPtr("   "),
			want:   nil,
		},
		{
			name:   "unset search matches nothing",
			search: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newSession()
			sess.SetValues(model.FilterState{Search: tt.search})

			got := orch.RegionMatches(context.Background(), sess)

			if len(got) != len(tt.want) {
				t.Fatalf("RegionMatches() = %v, want ids %v", got, tt.want)
			}
			for i, r := range got {
				if r.ID != tt.want[i] {
					t.Errorf("RegionMatches()[%d].ID = %v, want %v", i, r.ID, tt.want[i])
				}
			}
		})
	}
}

func TestSubmit_RequiresTypeContext(t *testing.T) {
	orch := newTestOrchestrator(&fakeBackend{}, nil, newFakeStore())

	tests := []struct {
		name   string
		values model.FilterState
	}{
		{name: "nothing set", values: model.FilterState{}},
		{name: "type name only", values: model.FilterState{TypeName: model.StrPtr(model.TypeNameBuy)}},
		{name: "type id only", values: model.FilterState{TypeID: model.IDPtr("1")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newSession()
			sess.SetValues(tt.values)
			if result, ok := orch.Submit(context.Background(), sess); ok || result != nil {
				t.Errorf("Submit() = (%v, %v), want silent no-op", result, ok)
			}
		})
	}
}

func TestSubmit_BuildsPathAndPersistsSnapshot(t *testing.T) {
	store := newFakeStore()
	orch := newTestOrchestrator(&fakeBackend{}, nil, store)
	sess := newSession()
	sess.SetValues(model.FilterState{
		TypeName:     model.StrPtr(model.TypeNameBuy),
		TypeID:       model.IDPtr("1"),
		PropertyName: model.StrPtr("Apartment"),
		BedroomMin:   model.IntPtr(2),
		BedroomMax:   model.IntPtr(3),
		PriceMin:     model.Float64Ptr(100000),
		PriceMax:     model.Float64Ptr(500000),
	})
	if err := sess.AddSelection(model.SelectedEntity{ID: "7", Kind: model.KindRegion, Name: "Marina Bay"}); err != nil {
		t.Fatal(err)
	}

	result, ok := orch.Submit(context.Background(), sess)
	if !ok {
		t.Fatal("Submit() ok = false, want true")
	}

	wantPath := "/buy/properties-for-sale/apartment/with-2-to-3-bedrooms/between-100000-500000"
	if result.Path != wantPath {
		t.Errorf("Path = %q, want %q", result.Path, wantPath)
	}
	if result.SnapshotID == "" {
		t.Fatal("SnapshotID empty, want persisted snapshot id")
	}
	saved, _ := store.GetSnapshot(context.Background(), result.SnapshotID)
	if saved == nil {
		t.Fatal("snapshot was not persisted")
	}
	if len(saved.ValueSearch) != 1 || saved.ValueSearch[0].Name != "Marina Bay" {
		t.Errorf("snapshot ValueSearch = %v, want the selected region", saved.ValueSearch)
	}
	if saved.RegionName == nil || *saved.RegionName != "Marina Bay" {
		t.Errorf("snapshot RegionName = %v, want Marina Bay", saved.RegionName)
	}
}

func TestSubmit_PersistenceFailureDoesNotBlock(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("db down")
	orch := newTestOrchestrator(&fakeBackend{}, nil, store)
	sess := newSession()
	sess.SetValues(model.FilterState{
		TypeName: model.StrPtr(model.TypeNameBuy),
		TypeID:   model.IDPtr("1"),
	})

	result, ok := orch.Submit(context.Background(), sess)
	if !ok {
		t.Fatal("Submit() ok = false, want navigation to proceed")
	}
	if result.SnapshotID != "" {
		t.Errorf("SnapshotID = %q, want empty when persistence failed", result.SnapshotID)
	}
	if result.Path == "" {
		t.Error("Path empty, want canonical path despite persistence failure")
	}
}

func TestResolve_ParsesPathAgainstCachedMetadata(t *testing.T) {
	source := &fakeSource{
		meta: &model.FilterMetadata{
			PropertyTypes: []model.PropertyType{{ID: "11", Name: "Villa"}},
		},
	}
	orch := newTestOrchestrator(&fakeBackend{}, source, newFakeStore())

	got := orch.Resolve(context.Background(), "/rent/properties-for-rent/villa/more-than-4-bedrooms", "", "2")

	if got.TypeID == nil || *got.TypeID != "2" {
		t.Errorf("TypeID = %v, want 2", got.TypeID)
	}
	if got.PropertyTypeID == nil || *got.PropertyTypeID != "11" {
		t.Errorf("PropertyTypeID = %v, want 11", got.PropertyTypeID)
	}
	if got.BedroomMin == nil || *got.BedroomMin != 4 {
		t.Errorf("BedroomMin = %v, want 4", got.BedroomMin)
	}
}

func TestResolve_SnapshotTakesPrecedence(t *testing.T) {
	store := newFakeStore()
	if err := store.SaveSnapshot(context.Background(), "snap-1", model.NavigationState{
		FilterState: model.FilterState{Search: model.StrPtr("marina")},
	}); err != nil {
		t.Fatal(err)
	}
	orch := newTestOrchestrator(&fakeBackend{}, nil, store)

	got := orch.Resolve(context.Background(), "/buy/properties-for-sale/below-100", "snap-1", "1")

	if got.Search == nil || *got.Search != "marina" {
		t.Errorf("Search = %v, want restored from snapshot", got.Search)
	}
	if got.PriceMax != nil {
		t.Errorf("PriceMax = %v, want nil: path must not be parsed when snapshot present", *got.PriceMax)
	}
	if got.TypeID == nil || *got.TypeID != "1" {
		t.Errorf("TypeID = %v, want fixed override 1", got.TypeID)
	}
}

func TestResolve_MetadataFailureStillParsesGrammar(t *testing.T) {
	orch := newTestOrchestrator(&fakeBackend{}, &fakeSource{}, newFakeStore())

	got := orch.Resolve(context.Background(), "/buy/properties-for-sale/apartment/above-50000", "", "1")

	if got.PropertyTypeID != nil {
		t.Errorf("PropertyTypeID = %v, want nil without metadata", *got.PropertyTypeID)
	}
	if got.PriceMin == nil || *got.PriceMin != 50000 {
		t.Errorf("PriceMin = %v, want 50000", got.PriceMin)
	}
}
