// Package geo is the geographic registry: provinces, the districts they
// contain, and lookups by code or registry id. Cases reference districts by
// their 4-digit code; the registry is consulted at write time and by the scope
// resolver.
package geo

import (
	"context"

	"transferdesk/pkg/domain"
)

type Province struct {
	ID   domain.ProvinceID `json:"id" yaml:"id"`
	Code string            `json:"code" yaml:"code"`
	Name string            `json:"name" yaml:"name"`
}

type District struct {
	ID         domain.DistrictID `json:"id" yaml:"id"`
	Code       string            `json:"code" yaml:"code"`
	ProvinceID domain.ProvinceID `json:"province_id" yaml:"province_id"`
	Name       string            `json:"name" yaml:"name"`
}

// Registry resolves geographic references. Lookups that miss return
// sentinel.ErrNotFound.
type Registry interface {
	DistrictByCode(ctx context.Context, code string) (District, error)
	DistrictByID(ctx context.Context, id domain.DistrictID) (District, error)
	ProvinceByCode(ctx context.Context, code string) (Province, error)
	ProvinceByID(ctx context.Context, id domain.ProvinceID) (Province, error)
	DistrictCodesInProvince(ctx context.Context, id domain.ProvinceID) ([]string, error)
}
