package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"portal/internal/model"

	"github.com/rs/zerolog"
)

type countingSource struct {
	filterCalls int
	devCalls    int
	regionCalls int
	fail        bool
}

func (s *countingSource) FilterMetadata(context.Context) (*model.FilterMetadata, error) {
	s.filterCalls++
	if s.fail {
		return nil, errors.New("backend down")
	}
	return &model.FilterMetadata{
		PropertyTypes: []model.PropertyType{{ID: "10", Name: "Apartment"}},
	}, nil
}

func (s *countingSource) Developers(context.Context) ([]model.Developer, error) {
	s.devCalls++
	if s.fail {
		return nil, errors.New("backend down")
	}
	return []model.Developer{{ID: "7", Name: "Emaar"}}, nil
}

func (s *countingSource) Regions(context.Context) ([]model.Region, error) {
	s.regionCalls++
	if s.fail {
		return nil, errors.New("backend down")
	}
	return []model.Region{{ID: "1", Name: "Marina Bay"}}, nil
}

func TestStore_FetchesOnceWithinTTL(t *testing.T) {
	source := &countingSource{}
	store := NewStore(source, time.Minute, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Filter(ctx); err != nil {
			t.Fatalf("Filter() error = %v", err)
		}
		if _, err := store.Developers(ctx); err != nil {
			t.Fatalf("Developers() error = %v", err)
		}
		if _, err := store.Regions(ctx); err != nil {
			t.Fatalf("Regions() error = %v", err)
		}
	}

	if source.filterCalls != 1 || source.devCalls != 1 || source.regionCalls != 1 {
		t.Errorf("source calls = (%d, %d, %d), want one fetch per key",
			source.filterCalls, source.devCalls, source.regionCalls)
	}
}

func TestStore_ExpiryTriggersRefetch(t *testing.T) {
	source := &countingSource{}
	store := NewStore(source, time.Nanosecond, zerolog.Nop())
	ctx := context.Background()

	if _, err := store.Filter(ctx); err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := store.Filter(ctx); err != nil {
		t.Fatalf("Filter() error = %v", err)
	}

	if source.filterCalls != 2 {
		t.Errorf("filter calls = %d, want refetch after expiry", source.filterCalls)
	}
}

func TestStore_ServesStaleOnRefreshFailure(t *testing.T) {
	source := &countingSource{}
	store := NewStore(source, time.Nanosecond, zerolog.Nop())
	ctx := context.Background()

	if _, err := store.Filter(ctx); err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	time.Sleep(time.Millisecond)
	source.fail = true

	meta, err := store.Filter(ctx)
	if err != nil {
		t.Fatalf("Filter() error = %v, want stale entry served", err)
	}
	if len(meta.PropertyTypes) != 1 {
		t.Errorf("stale metadata = %v, want original entry", meta)
	}
}

func TestStore_ErrorWithoutCachePropagates(t *testing.T) {
	source := &countingSource{fail: true}
	store := NewStore(source, time.Minute, zerolog.Nop())

	if _, err := store.Filter(context.Background()); err == nil {
		t.Error("Filter() error = nil, want failure on cold cache")
	}
}

func TestStore_RefreshForcesFetch(t *testing.T) {
	source := &countingSource{}
	store := NewStore(source, time.Hour, zerolog.Nop())
	ctx := context.Background()

	if _, err := store.Filter(ctx); err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	store.Refresh(ctx)

	if source.filterCalls != 2 {
		t.Errorf("filter calls = %d, want Refresh to bypass the TTL", source.filterCalls)
	}
	if source.devCalls != 1 || source.regionCalls != 1 {
		t.Errorf("dev/region calls = (%d, %d), want Refresh to warm every key", source.devCalls, source.regionCalls)
	}
}
