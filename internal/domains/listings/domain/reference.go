package domain

// DefaultCountry is the only country the listing form currently offers.
const DefaultCountry = "Canada"

// Countries supported by the marketplace.
var Countries = []string{"Canada", "United States"}

// Provinces maps each country to its provinces or states.
var Provinces = map[string][]string{
	"Canada": {
		"Alberta",
		"British Columbia",
		"Manitoba",
		"New Brunswick",
		"Newfoundland and Labrador",
		"Nova Scotia",
		"Ontario",
		"Prince Edward Island",
		"Quebec",
		"Saskatchewan",
	},
	"United States": {
		"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado", "Connecticut",
		"Delaware", "Florida", "Georgia", "Hawaii", "Idaho", "Illinois", "Indiana",
		"Iowa", "Kansas", "Kentucky", "Louisiana", "Maine", "Maryland", "Massachusetts",
		"Michigan", "Minnesota", "Mississippi", "Missouri", "Montana", "Nebraska", "Nevada",
		"New Hampshire", "New Jersey", "New Mexico", "New York", "North Carolina", "North Dakota",
		"Ohio", "Oklahoma", "Oregon", "Pennsylvania", "Rhode Island", "South Carolina", "South Dakota",
		"Tennessee", "Texas", "Utah", "Vermont", "Virginia", "Washington", "West Virginia", "Wisconsin",
		"Wyoming",
	},
}

// MajorCities seeds town suggestions for filters.
var MajorCities = []string{"New York", "Toronto", "Vancouver", "Los Angeles", "Chicago", "Houston"}

// PetTypes lists the species offered in option lists.
var PetTypes = []Species{SpeciesDog, SpeciesCat, SpeciesBird, SpeciesRabbit, SpeciesOther}

// AgeCategories lists the selectable categories. Unknown is derived only.
var AgeCategories = []AgeCategory{AgeBaby, AgeYoung, AgeAdult, AgeSenior}

// AgeOption is one entry of the age picker.
type AgeOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// PetAges is the coarse age picker used by search filters.
var PetAges = []AgeOption{
	{Value: 0, Label: "Less than 1 year"},
	{Value: 1, Label: "1 year"},
	{Value: 2, Label: "2 years"},
	{Value: 3, Label: "3 years"},
	{Value: 4, Label: "4 years"},
	{Value: 5, Label: "5 years"},
	{Value: 6, Label: "6 years"},
	{Value: 7, Label: "7+ years"},
}

// ValidCountry reports whether the country is supported.
func ValidCountry(country string) bool {
	_, ok := Provinces[country]
	return ok
}

// ProvinceBelongsTo reports whether province is listed for country.
func ProvinceBelongsTo(country, province string) bool {
	for _, candidate := range Provinces[country] {
		if candidate == province {
			return true
		}
	}
	return false
}
