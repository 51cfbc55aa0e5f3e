package geo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"transferdesk/pkg/domain"
	"transferdesk/pkg/platform/sentinel"
)

// InMemory is a Registry backed by maps, seeded at startup.
type InMemory struct {
	mu                sync.RWMutex
	provincesByID     map[domain.ProvinceID]Province
	provincesByCode   map[string]Province
	districtsByID     map[domain.DistrictID]District
	districtsByCode   map[string]District
	districtsProvince map[domain.ProvinceID][]string
}

func NewInMemory() *InMemory {
	return &InMemory{
		provincesByID:     make(map[domain.ProvinceID]Province),
		provincesByCode:   make(map[string]Province),
		districtsByID:     make(map[domain.DistrictID]District),
		districtsByCode:   make(map[string]District),
		districtsProvince: make(map[domain.ProvinceID][]string),
	}
}

// Load replaces the registry contents. Every district must belong to a loaded
// province and codes must be unique.
func (r *InMemory) Load(provinces []Province, districts []District) error {
	next := NewInMemory()
	for _, p := range provinces {
		if _, dup := next.provincesByCode[p.Code]; dup {
			return fmt.Errorf("duplicate province code %q", p.Code)
		}
		next.provincesByID[p.ID] = p
		next.provincesByCode[p.Code] = p
	}
	for _, d := range districts {
		if _, err := domain.ParseDistrictCode("district code", d.Code); err != nil {
			return fmt.Errorf("district %q: %w", d.Name, err)
		}
		if _, ok := next.provincesByID[d.ProvinceID]; !ok {
			return fmt.Errorf("district %s references unknown province %s", d.Code, d.ProvinceID)
		}
		if _, dup := next.districtsByCode[d.Code]; dup {
			return fmt.Errorf("duplicate district code %q", d.Code)
		}
		next.districtsByID[d.ID] = d
		next.districtsByCode[d.Code] = d
		next.districtsProvince[d.ProvinceID] = append(next.districtsProvince[d.ProvinceID], d.Code)
	}
	for _, codes := range next.districtsProvince {
		sort.Strings(codes)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.provincesByID = next.provincesByID
	r.provincesByCode = next.provincesByCode
	r.districtsByID = next.districtsByID
	r.districtsByCode = next.districtsByCode
	r.districtsProvince = next.districtsProvince
	return nil
}

func (r *InMemory) DistrictByCode(_ context.Context, code string) (District, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.districtsByCode[code]
	if !ok {
		return District{}, sentinel.ErrNotFound
	}
	return d, nil
}

func (r *InMemory) DistrictByID(_ context.Context, id domain.DistrictID) (District, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.districtsByID[id]
	if !ok {
		return District{}, sentinel.ErrNotFound
	}
	return d, nil
}

func (r *InMemory) ProvinceByCode(_ context.Context, code string) (Province, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.provincesByCode[code]
	if !ok {
		return Province{}, sentinel.ErrNotFound
	}
	return p, nil
}

func (r *InMemory) ProvinceByID(_ context.Context, id domain.ProvinceID) (Province, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.provincesByID[id]
	if !ok {
		return Province{}, sentinel.ErrNotFound
	}
	return p, nil
}

func (r *InMemory) DistrictCodesInProvince(_ context.Context, id domain.ProvinceID) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.provincesByID[id]; !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]string(nil), r.districtsProvince[id]...), nil
}
