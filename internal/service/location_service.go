package service

import (
	"context"
	"sort"
	"strings"

	"wanderlog/internal/repository"
)

// Locations is the facet index over story locations and types.
type Locations struct {
	Countries []string `json:"countries"`
	Cities    []string `json:"cities"`
	Types     []string `json:"types"`
}

// LocationService derives location facets from stories. The index is
// rebuilt on every call.
type LocationService struct {
	stories repository.StoryRepository
}

func NewLocationService(stories repository.StoryRepository) *LocationService {
	return &LocationService{stories: stories}
}

func (s *LocationService) All(ctx context.Context) (*Locations, error) {
	rows, err := s.stories.LocationRows(ctx)
	if err != nil {
		return nil, err
	}
	return BuildLocations(rows), nil
}

func (s *LocationService) Countries(ctx context.Context) ([]string, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return all.Countries, nil
}

func (s *LocationService) Cities(ctx context.Context) ([]string, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return all.Cities, nil
}

func (s *LocationService) Types(ctx context.Context) ([]string, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return all.Types, nil
}

// BuildLocations splits "City, ..., Country" strings into facets. The last
// segment is the country; the first is a city only when there are at least
// two segments. Rows without a location contribute nothing, not even their
// type.
func BuildLocations(rows []repository.LocationRow) *Locations {
	countries := map[string]struct{}{}
	cities := map[string]struct{}{}
	types := map[string]struct{}{}

	for _, row := range rows {
		if row.Location == nil {
			continue
		}
		if row.Type != nil {
			add(types, *row.Type)
		}
		parts := strings.Split(*row.Location, ",")
		add(countries, parts[len(parts)-1])
		if len(parts) >= 2 {
			add(cities, parts[0])
		}
	}

	return &Locations{
		Countries: sortedKeys(countries),
		Cities:    sortedKeys(cities),
		Types:     sortedKeys(types),
	}
}

func add(set map[string]struct{}, v string) {
	if v = strings.TrimSpace(v); v != "" {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
