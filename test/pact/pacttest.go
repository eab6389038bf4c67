//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
)

const (
	ProviderName = "listings-backend"
	ConsumerName = "pet-portal"

	StateListingsBaseline = "listings baseline"
	StateListingExists    = "listing pet-101 exists"
	StateListingMissing   = "no listing pet-404"
)

const (
	ExistingListingID = "pet-101"
	MissingListingID  = "pet-404"
	CreatedListingID  = "pet-201"
	OwnerID           = "owner-1"
)

const exampleImageURL = "https://files.example.pact/pet-profiles/pet-101/rex.jpg"

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the pet portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExistingListing is the record seeded for StateListingExists.
func ExistingListing() domain.Listing {
	return domain.Listing{
		ID:           ExistingListingID,
		Name:         "Rex",
		Species:      domain.SpeciesDog,
		AgeCategory:  domain.AgeAdult,
		Country:      "Canada",
		Province:     "Ontario",
		Town:         "Toronto",
		Price:        150,
		MainImageURL: exampleImageURL,
		Images:       []string{exampleImageURL},
		ContactName:  "Ann",
		ContactPhone: "555-0100",
		OwnerID:      OwnerID,
		HealthFlags:  domain.HealthFlags{Vaccinated: true},
	}
}

// NewListing is the body the portal posts when finalizing a create.
func NewListing() domain.Listing {
	listing := ExistingListing()
	listing.ID = CreatedListingID
	listing.Name = "Milo"
	listing.Species = domain.SpeciesCat
	listing.AgeCategory = domain.AgeYoung
	return listing
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
