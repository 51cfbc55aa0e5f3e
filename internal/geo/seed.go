package geo

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"transferdesk/pkg/domain"
)

// Seed is the on-disk registry format:
//
//	provinces:
//	  - id: 6f1c...
//	    code: "10"
//	    name: North
//	    districts:
//	      - id: 0b7e...
//	        code: "1001"
//	        name: North Central
type Seed struct {
	Provinces []seedProvince `yaml:"provinces"`
}

type seedProvince struct {
	ID        domain.ProvinceID `yaml:"id"`
	Code      string            `yaml:"code"`
	Name      string            `yaml:"name"`
	Districts []seedDistrict    `yaml:"districts"`
}

type seedDistrict struct {
	ID   domain.DistrictID `yaml:"id"`
	Code string            `yaml:"code"`
	Name string            `yaml:"name"`
}

// ParseSeed decodes a YAML seed into flat province and district lists.
func ParseSeed(r io.Reader) ([]Province, []District, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return nil, nil, fmt.Errorf("decode geo seed: %w", err)
	}

	var (
		provinces []Province
		districts []District
	)
	for _, sp := range seed.Provinces {
		if sp.ID.IsNil() || sp.Code == "" {
			return nil, nil, fmt.Errorf("province %q: id and code are required", sp.Name)
		}
		provinces = append(provinces, Province{ID: sp.ID, Code: sp.Code, Name: sp.Name})
		for _, sd := range sp.Districts {
			if sd.ID.IsNil() {
				return nil, nil, fmt.Errorf("district %q: id is required", sd.Code)
			}
			districts = append(districts, District{ID: sd.ID, Code: sd.Code, ProvinceID: sp.ID, Name: sd.Name})
		}
	}
	return provinces, districts, nil
}

// LoadSeedFile parses path and loads it into a fresh in-memory registry.
func LoadSeedFile(path string) (*InMemory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geo seed: %w", err)
	}
	defer f.Close()

	provinces, districts, err := ParseSeed(f)
	if err != nil {
		return nil, err
	}
	reg := NewInMemory()
	if err := reg.Load(provinces, districts); err != nil {
		return nil, err
	}
	return reg, nil
}
