package domain

import (
	"errors"
	"math"
	"strings"
)

// Species is the closed set of pet types a listing may advertise.
type Species string

const (
	SpeciesDog    Species = "Dog"
	SpeciesCat    Species = "Cat"
	SpeciesBird   Species = "Bird"
	SpeciesRabbit Species = "Rabbit"
	SpeciesOther  Species = "Other"
)

// HealthFlags groups the independent health and paperwork markers of a listing.
type HealthFlags struct {
	Sterilized        bool `json:"isSterilized"`
	Vaccinated        bool `json:"isVaccinated"`
	Chipped           bool `json:"hasChip"`
	ParasiteTreated   bool `json:"hasParasiteTreatment"`
	HasVetPassport    bool `json:"hasVetPassport"`
	HasPedigree       bool `json:"hasPedigree"`
	HasFCICertificate bool `json:"hasFCICertificate"`
}

// Listing is a pet record as exchanged with the backend of record.
// Editable optional fields are always encoded so an update can clear them.
type Listing struct {
	ID           string      `json:"pet_id,omitempty"`
	Name         string      `json:"pet_name"`
	Species      Species     `json:"pet_type"`
	ExactAge     *float64    `json:"exact_age"`
	AgeCategory  AgeCategory `json:"age_category"`
	Gender       string      `json:"gender"`
	Country      string      `json:"country"`
	Province     string      `json:"province"`
	Town         string      `json:"town"`
	Price        float64     `json:"price"`
	Description  string      `json:"description"`
	MainImageURL string      `json:"main_image_url,omitempty"`
	Images       []string    `json:"images"`
	Documents    []string    `json:"documents"`
	ContactName  string      `json:"contact_name"`
	ContactPhone string      `json:"contact_phone"`
	OwnerID      string      `json:"owner_id,omitempty"`
	HealthFlags
}

var (
	ErrEmptyName          = errors.New("pet name is required")
	ErrUnknownSpecies     = errors.New("pet type is not supported")
	ErrUnknownCountry     = errors.New("country is not supported")
	ErrUnknownProvince    = errors.New("province does not belong to country")
	ErrEmptyContact       = errors.New("contact name and phone are required")
	ErrMissingMainImage   = errors.New("main image is required")
	ErrInvalidAgeCategory = errors.New("age category is not supported")
)

// Clone returns a deep copy so drafts never share slices with their source.
func (l Listing) Clone() Listing {
	out := l
	if l.ExactAge != nil {
		age := *l.ExactAge
		out.ExactAge = &age
	}
	if l.Images != nil {
		out.Images = append([]string{}, l.Images...)
	}
	if l.Documents != nil {
		out.Documents = append([]string{}, l.Documents...)
	}
	return out
}

// Normalized returns a copy ready for transmission to the backend.
func (l Listing) Normalized() Listing {
	out := l.Clone()
	out.Price = NormalizePrice(out.Price)
	if out.Images == nil {
		out.Images = []string{}
	}
	return out
}

// IsFree reports whether the listing is advertised without a price.
func (l Listing) IsFree() bool {
	return NormalizePrice(l.Price) == 0
}

// NormalizePrice coerces a price to a finite non-negative number.
func NormalizePrice(price float64) float64 {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0
	}
	return price
}

// ValidSpecies reports whether the value names a supported pet type.
func ValidSpecies(value Species) bool {
	for _, candidate := range PetTypes {
		if candidate == value {
			return true
		}
	}
	return false
}

// ParseSpecies matches a pet type case-insensitively.
func ParseSpecies(raw string) (Species, bool) {
	raw = strings.TrimSpace(raw)
	for _, candidate := range PetTypes {
		if strings.EqualFold(string(candidate), raw) {
			return candidate, true
		}
	}
	return Species(raw), false
}
