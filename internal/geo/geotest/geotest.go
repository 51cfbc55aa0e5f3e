// Package geotest provides a small fixed registry for tests:
//
//	province 10 (North): districts 1001, 1002
//	province 20 (South): district 2001
package geotest

import (
	"github.com/google/uuid"

	"transferdesk/internal/geo"
	"transferdesk/pkg/domain"
)

var (
	NorthID = domain.ProvinceID(uuid.MustParse("6f1c2a6e-1f7b-4c3a-9c1e-000000000010"))
	SouthID = domain.ProvinceID(uuid.MustParse("6f1c2a6e-1f7b-4c3a-9c1e-000000000020"))

	District1001ID = domain.DistrictID(uuid.MustParse("0b7e3c1a-2d4f-4e5a-8b6c-000000001001"))
	District1002ID = domain.DistrictID(uuid.MustParse("0b7e3c1a-2d4f-4e5a-8b6c-000000001002"))
	District2001ID = domain.DistrictID(uuid.MustParse("0b7e3c1a-2d4f-4e5a-8b6c-000000002001"))
)

func Provinces() []geo.Province {
	return []geo.Province{
		{ID: NorthID, Code: "10", Name: "North"},
		{ID: SouthID, Code: "20", Name: "South"},
	}
}

func Districts() []geo.District {
	return []geo.District{
		{ID: District1001ID, Code: "1001", ProvinceID: NorthID, Name: "North Central"},
		{ID: District1002ID, Code: "1002", ProvinceID: NorthID, Name: "North Hills"},
		{ID: District2001ID, Code: "2001", ProvinceID: SouthID, Name: "South Coast"},
	}
}

// Registry returns an in-memory registry loaded with the fixture.
func Registry() *geo.InMemory {
	reg := geo.NewInMemory()
	if err := reg.Load(Provinces(), Districts()); err != nil {
		panic(err)
	}
	return reg
}
