package cache

import (
	"context"
	"sync"
	"time"

	"portal/internal/model"

	"github.com/rs/zerolog"
)

// MetadataSource is the slice of the backend the cache reads through to.
type MetadataSource interface {
	FilterMetadata(ctx context.Context) (*model.FilterMetadata, error)
	Developers(ctx context.Context) ([]model.Developer, error)
	Regions(ctx context.Context) ([]model.Region, error)
}

// Store is a read-through TTL cache over the three metadata endpoints.
// Concurrent misses on the same entry fetch once.
type Store struct {
	source MetadataSource
	ttl    time.Duration
	log    zerolog.Logger

	mu         sync.Mutex
	filter     *model.FilterMetadata
	filterAt   time.Time
	developers []model.Developer
	devAt      time.Time
	regions    []model.Region
	regionsAt  time.Time
}

// NewStore creates a metadata cache with the given entry TTL.
func NewStore(source MetadataSource, ttl time.Duration, log zerolog.Logger) *Store {
	return &Store{source: source, ttl: ttl, log: log}
}

// Filter returns the cached filter metadata, fetching on miss or expiry.
func (s *Store) Filter(ctx context.Context) (*model.FilterMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter != nil && time.Since(s.filterAt) < s.ttl {
		return s.filter, nil
	}
	meta, err := s.source.FilterMetadata(ctx)
	if err != nil {
		// Serve the stale entry if one exists; metadata changes rarely.
		if s.filter != nil {
			s.log.Warn().Err(err).Msg("filter metadata refresh failed, serving stale entry")
			return s.filter, nil
		}
		return nil, err
	}
	s.filter = meta
	s.filterAt = time.Now()
	return meta, nil
}

// Developers returns the cached developer list, fetching on miss or expiry.
func (s *Store) Developers(ctx context.Context) ([]model.Developer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.developers != nil && time.Since(s.devAt) < s.ttl {
		return s.developers, nil
	}
	devs, err := s.source.Developers(ctx)
	if err != nil {
		if s.developers != nil {
			s.log.Warn().Err(err).Msg("developer metadata refresh failed, serving stale entry")
			return s.developers, nil
		}
		return nil, err
	}
	s.developers = devs
	s.devAt = time.Now()
	return devs, nil
}

// Regions returns the cached region list, fetching on miss or expiry.
func (s *Store) Regions(ctx context.Context) ([]model.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.regions != nil && time.Since(s.regionsAt) < s.ttl {
		return s.regions, nil
	}
	regions, err := s.source.Regions(ctx)
	if err != nil {
		if s.regions != nil {
			s.log.Warn().Err(err).Msg("region list refresh failed, serving stale entry")
			return s.regions, nil
		}
		return nil, err
	}
	s.regions = regions
	s.regionsAt = time.Now()
	return regions, nil
}

// Refresh force-fetches all three entries, keeping whatever succeeded.
// Wired to the periodic refresh schedule.
func (s *Store) Refresh(ctx context.Context) {
	if meta, err := s.source.FilterMetadata(ctx); err == nil {
		s.mu.Lock()
		s.filter = meta
		s.filterAt = time.Now()
		s.mu.Unlock()
	} else {
		s.log.Warn().Err(err).Msg("scheduled filter metadata refresh failed")
	}
	if devs, err := s.source.Developers(ctx); err == nil {
		s.mu.Lock()
		s.developers = devs
		s.devAt = time.Now()
		s.mu.Unlock()
	} else {
		s.log.Warn().Err(err).Msg("scheduled developer refresh failed")
	}
	if regions, err := s.source.Regions(ctx); err == nil {
		s.mu.Lock()
		s.regions = regions
		s.regionsAt = time.Now()
		s.mu.Unlock()
	} else {
		s.log.Warn().Err(err).Msg("scheduled region refresh failed")
	}
}
