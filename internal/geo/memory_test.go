package geo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"transferdesk/internal/geo"
	"transferdesk/internal/geo/geotest"
	"transferdesk/pkg/domain"
	"transferdesk/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	reg *geo.InMemory
	ctx context.Context
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.reg = geotest.Registry()
	s.ctx = context.Background()
}

func (s *InMemorySuite) TestLookups() {
	s.Run("district by code and id", func() {
		d, err := s.reg.DistrictByCode(s.ctx, "1002")
		s.Require().NoError(err)
		s.Equal(geotest.District1002ID, d.ID)
		s.Equal(geotest.NorthID, d.ProvinceID)

		byID, err := s.reg.DistrictByID(s.ctx, geotest.District1002ID)
		s.Require().NoError(err)
		s.Equal(d, byID)
	})

	s.Run("province by code and id", func() {
		p, err := s.reg.ProvinceByCode(s.ctx, "20")
		s.Require().NoError(err)
		s.Equal(geotest.SouthID, p.ID)

		byID, err := s.reg.ProvinceByID(s.ctx, geotest.SouthID)
		s.Require().NoError(err)
		s.Equal(p, byID)
	})

	s.Run("containment is sorted", func() {
		codes, err := s.reg.DistrictCodesInProvince(s.ctx, geotest.NorthID)
		s.Require().NoError(err)
		s.Equal([]string{"1001", "1002"}, codes)
	})

	s.Run("misses return ErrNotFound", func() {
		_, err := s.reg.DistrictByCode(s.ctx, "9999")
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.reg.ProvinceByID(s.ctx, domain.ProvinceID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.reg.DistrictCodesInProvince(s.ctx, domain.ProvinceID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemorySuite) TestLoadRejectsInconsistentData() {
	s.Run("orphan district", func() {
		err := geo.NewInMemory().Load(nil, geotest.Districts())
		s.Error(err)
	})

	s.Run("duplicate district code", func() {
		districts := append(geotest.Districts(), geo.District{
			ID: domain.DistrictID(uuid.New()), Code: "1001", ProvinceID: geotest.NorthID,
		})
		err := geo.NewInMemory().Load(geotest.Provinces(), districts)
		s.Error(err)
	})

	s.Run("malformed district code", func() {
		err := geo.NewInMemory().Load(geotest.Provinces(), []geo.District{
			{ID: domain.DistrictID(uuid.New()), Code: "10A1", ProvinceID: geotest.NorthID},
		})
		s.Error(err)
	})

	s.Run("failed load keeps previous contents", func() {
		_ = s.reg.Load(nil, geotest.Districts())
		_, err := s.reg.DistrictByCode(s.ctx, "1001")
		s.NoError(err)
	})
}
