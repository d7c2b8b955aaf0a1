package backend

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mattfenwick/pickupscan/pkg/utils"
)

const registryYaml = `kind: Pharmacy
name: Adler Apotheke
address: Hauptstr. 1
publicId: cfc2J4gkTqE
region: NW1
---
kind: Region
name: NRW West
code: NW1
publicId: rNW1
---
kind: Pharmacy
name: Bahnhof Apotheke
publicId: abc123
---
kind: Pharmacy
name: Closed Apotheke
publicId: closed1
inactive: true
`

func TestGeneratePublicID(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := GeneratePublicID()
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		if !pattern.MatchString(id) {
			t.Errorf("id %q is not 11 url-safe characters", id)
		}
		if seen[id] {
			t.Errorf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestParseRegistry(t *testing.T) {
	registry, err := ParseRegistry([]byte(registryYaml))
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	expectedRegions := map[int]*Region{
		1: {ID: 1, Name: "NRW West", Code: "NW1", PublicID: "rNW1", IsActive: true},
	}
	if diff := cmp.Diff(expectedRegions, registry.Regions); diff != "" {
		t.Errorf("unexpected regions (-want +got):\n%s", diff)
	}

	expectedPharmacies := map[string]*Pharmacy{
		"cfc2J4gkTqE": {ID: 1, Name: "Adler Apotheke", Address: "Hauptstr. 1", PublicID: "cfc2J4gkTqE", RegionID: utils.Pointer(1), IsActive: true},
		"abc123":      {ID: 2, Name: "Bahnhof Apotheke", PublicID: "abc123", IsActive: true},
		"closed1":     {ID: 3, Name: "Closed Apotheke", PublicID: "closed1", IsActive: false},
	}
	if diff := cmp.Diff(expectedPharmacies, registry.Pharmacies); diff != "" {
		t.Errorf("unexpected pharmacies (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"abc123", "cfc2J4gkTqE", "closed1"}, registry.PublicIDs()); diff != "" {
		t.Errorf("unexpected public ids (-want +got):\n%s", diff)
	}
	var names []string
	for _, p := range registry.SortedPharmacies() {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"Adler Apotheke", "Bahnhof Apotheke", "Closed Apotheke"}, names); diff != "" {
		t.Errorf("unexpected pharmacy order (-want +got):\n%s", diff)
	}
}

func TestPharmacyLookup(t *testing.T) {
	registry, err := ParseRegistry([]byte(registryYaml))
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if p := registry.PharmacyByPublicID("abc123"); p == nil || p.Name != "Bahnhof Apotheke" {
		t.Errorf("expected Bahnhof Apotheke, got %+v", p)
	}
	if p := registry.PharmacyByPublicID("closed1"); p != nil {
		t.Errorf("expected inactive pharmacy to be hidden, got %+v", p)
	}
	if p := registry.PharmacyByPublicID("nope"); p != nil {
		t.Errorf("expected no pharmacy, got %+v", p)
	}
	if r := registry.Region(nil); r != nil {
		t.Errorf("expected no region, got %+v", r)
	}
}

func TestParseRegistryErrors(t *testing.T) {
	cases := map[string]string{
		"unknown kind":        "kind: Hospital\nname: x\n",
		"unknown region":      "kind: Pharmacy\nname: x\npublicId: a\nregion: NOPE\n",
		"duplicate id":        "kind: Pharmacy\nname: x\npublicId: a\n---\nkind: Pharmacy\nname: y\npublicId: a\n",
		"region without code": "kind: Region\nname: x\n",
		"duplicate region":    "kind: Region\nname: x\ncode: A\n---\nkind: Region\nname: y\ncode: A\n",
		"bad yaml":            "kind: [Pharmacy\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRegistry([]byte(data)); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestAddPharmacyGeneratesPublicID(t *testing.T) {
	registry := NewRegistry()
	pharmacy, err := registry.AddPharmacy("Neue Apotheke", "", "", "", true)
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if len(pharmacy.PublicID) != 11 {
		t.Errorf("expected a generated public id, got %q", pharmacy.PublicID)
	}
	if registry.PharmacyByPublicID(pharmacy.PublicID) != pharmacy {
		t.Errorf("expected the pharmacy to be registered under its generated id")
	}
}

func TestRegistryTables(t *testing.T) {
	registry, err := ParseRegistry([]byte(registryYaml))
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	pharmacies := registry.PharmaciesTable("https://pickupscan.de/")
	for _, fragment := range []string{"https://pickupscan.de/?p=cfc2J4gkTqE", "https://pickupscan.de/?p=closed1", "NW1", "Hauptstr. 1"} {
		if !strings.Contains(pharmacies, fragment) {
			t.Errorf("expected pharmacies table to contain %q:\n%s", fragment, pharmacies)
		}
	}
	if regions := registry.RegionsTable(); !strings.Contains(regions, "NRW West") {
		t.Errorf("expected regions table to contain the region:\n%s", regions)
	}
}
