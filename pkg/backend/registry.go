package backend

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/mattfenwick/collections/pkg/slice"
	"github.com/mattfenwick/pickupscan/pkg/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"
)

// GeneratePublicID returns an opaque, url-safe identifier suitable for a QR
// payload: 8 random bytes, base64url without padding (11 characters).
func GeneratePublicID() (string, error) {
	bs := make([]byte, 8)
	if _, err := rand.Read(bs); err != nil {
		return "", errors.Wrapf(err, "unable to read random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(bs), nil
}

// RegistryEntry is one yaml document of a registry file, either
//
//	kind: Region
//	name: NRW West
//	code: NW1
//
// or
//
//	kind: Pharmacy
//	name: Adler Apotheke
//	publicId: cfc2J4gkTqE
//	region: NW1
type RegistryEntry struct {
	Kind     string `yaml:"kind"`
	Name     string `yaml:"name"`
	Code     string `yaml:"code"`
	Address  string `yaml:"address"`
	PublicID string `yaml:"publicId"`
	Region   string `yaml:"region"`
	Inactive bool   `yaml:"inactive"`
}

type Registry struct {
	Regions    map[int]*Region
	Pharmacies map[string]*Pharmacy
}

func NewRegistry() *Registry {
	return &Registry{
		Regions:    map[int]*Region{},
		Pharmacies: map[string]*Pharmacy{},
	}
}

func ParseRegistryFromFile(path string) (*Registry, error) {
	data, err := utils.ReadFileBytes(path)
	if err != nil {
		return nil, err
	}
	return ParseRegistry(data)
}

func ParseRegistry(data []byte) (*Registry, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))

	var entries []*RegistryEntry
	for {
		next := &RegistryEntry{}
		err := decoder.Decode(next)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(err, "unable to decode registry document %d", len(entries)+1)
		}
		entries = append(entries, next)
	}

	registry := NewRegistry()
	// regions first so pharmacies may reference regions declared later in the file
	for _, entry := range entries {
		if entry.Kind != "Region" {
			continue
		}
		if _, err := registry.AddRegion(entry.Name, entry.Code, entry.PublicID, !entry.Inactive); err != nil {
			return nil, err
		}
	}
	for _, entry := range entries {
		switch entry.Kind {
		case "Region":
		case "Pharmacy":
			if _, err := registry.AddPharmacy(entry.Name, entry.Address, entry.PublicID, entry.Region, !entry.Inactive); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Errorf("unrecognized registry kind '%s' for '%s'", entry.Kind, entry.Name)
		}
	}
	logrus.Infof("loaded registry: %d regions, %d pharmacies", len(registry.Regions), len(registry.Pharmacies))
	return registry, nil
}

func (r *Registry) AddRegion(name string, code string, publicID string, isActive bool) (*Region, error) {
	if code == "" {
		return nil, errors.Errorf("region '%s' needs a code", name)
	}
	if r.RegionByCode(code) != nil {
		return nil, errors.Errorf("duplicate region code '%s'", code)
	}
	if publicID == "" {
		var err error
		if publicID, err = GeneratePublicID(); err != nil {
			return nil, err
		}
	}
	region := &Region{
		ID:       len(r.Regions) + 1,
		Name:     name,
		Code:     code,
		PublicID: publicID,
		IsActive: isActive,
	}
	r.Regions[region.ID] = region
	return region, nil
}

func (r *Registry) AddPharmacy(name string, address string, publicID string, regionCode string, isActive bool) (*Pharmacy, error) {
	if publicID == "" {
		var err error
		if publicID, err = GeneratePublicID(); err != nil {
			return nil, err
		}
		logrus.Infof("generated public id %s for pharmacy '%s'", publicID, name)
	}
	if _, ok := r.Pharmacies[publicID]; ok {
		return nil, errors.Errorf("duplicate pharmacy public id '%s'", publicID)
	}
	pharmacy := &Pharmacy{
		ID:       len(r.Pharmacies) + 1,
		Name:     name,
		Address:  address,
		PublicID: publicID,
		IsActive: isActive,
	}
	if regionCode != "" {
		region := r.RegionByCode(regionCode)
		if region == nil {
			return nil, errors.Errorf("pharmacy '%s' references unknown region '%s'", name, regionCode)
		}
		pharmacy.RegionID = utils.Pointer(region.ID)
	}
	r.Pharmacies[publicID] = pharmacy
	return pharmacy, nil
}

func (r *Registry) RegionByCode(code string) *Region {
	for _, region := range r.Regions {
		if region.Code == code {
			return region
		}
	}
	return nil
}

// PharmacyByPublicID only finds active pharmacies.
func (r *Registry) PharmacyByPublicID(publicID string) *Pharmacy {
	pharmacy, ok := r.Pharmacies[publicID]
	if !ok || !pharmacy.IsActive {
		return nil
	}
	return pharmacy
}

func (r *Registry) Region(id *int) *Region {
	if id == nil {
		return nil
	}
	return r.Regions[*id]
}

func (r *Registry) SortedPharmacies() []*Pharmacy {
	return slice.SortOn(func(p *Pharmacy) string { return p.Name + "\x00" + p.PublicID }, maps.Values(r.Pharmacies))
}

func (r *Registry) PublicIDs() []string {
	return slice.Sort(maps.Keys(r.Pharmacies))
}
