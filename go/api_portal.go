package portalserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
	listingsports "github.com/Apurer/pet-portal/internal/domains/listings/ports"
)

// featuredCount is how many listings the home page shows.
const featuredCount = 4

// PortalAPI serves the reference data and the home summary.
type PortalAPI struct {
	gateway listingsports.Gateway
}

// NewPortalAPI creates a PortalAPI reading listings through gateway.
func NewPortalAPI(gateway listingsports.Gateway) PortalAPI {
	return PortalAPI{gateway: gateway}
}

// ReferenceData is the static vocabulary used by listing forms and filters.
type ReferenceData struct {
	Countries     []string             `json:"countries"`
	Provinces     map[string][]string  `json:"provinces"`
	MajorCities   []string             `json:"major_cities"`
	PetTypes      []domain.Species     `json:"pet_types"`
	AgeCategories []domain.AgeCategory `json:"age_categories"`
	PetAges       []domain.AgeOption   `json:"pet_ages"`
	SortOrders    []string             `json:"sort_orders"`
}

// HomeSummary counts listings per pet type and features the first few.
type HomeSummary struct {
	Stats    map[domain.Species]int `json:"stats"`
	Featured []domain.Listing       `json:"featured"`
}

// Get /healthz
func (api *PortalAPI) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Get /api/v1/reference
// Lists countries, provinces, cities, pet types and age options
func (api *PortalAPI) GetReference(c *gin.Context) {
	c.JSON(http.StatusOK, ReferenceData{
		Countries:     domain.Countries,
		Provinces:     domain.Provinces,
		MajorCities:   domain.MajorCities,
		PetTypes:      domain.PetTypes,
		AgeCategories: domain.AgeCategories,
		PetAges:       domain.PetAges,
		SortOrders:    sortOrders,
	})
}

// Get /api/v1/home
// Summarises the current listings for the landing page
func (api *PortalAPI) GetHome(c *gin.Context) {
	page, err := api.gateway.List(c.Request.Context(), listingtypes.ListFilter{})
	if err != nil {
		respondReadError(c, err)
		return
	}
	c.JSON(http.StatusOK, summarize(page.Listings))
}

func summarize(listings []domain.Listing) HomeSummary {
	summary := HomeSummary{
		Stats:    make(map[domain.Species]int, len(domain.PetTypes)),
		Featured: []domain.Listing{},
	}
	for _, species := range domain.PetTypes {
		summary.Stats[species] = 0
	}
	for _, listing := range listings {
		if domain.ValidSpecies(listing.Species) {
			summary.Stats[listing.Species]++
		} else {
			summary.Stats[domain.SpeciesOther]++
		}
	}
	if len(listings) > featuredCount {
		listings = listings[:featuredCount]
	}
	summary.Featured = append(summary.Featured, listings...)
	return summary
}
