package devbackend

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
	"github.com/Apurer/pet-portal/internal/shared/projection"
)

// PostgresListingStore persists listings with GORM. Caller owns DB lifecycle.
type PostgresListingStore struct {
	db *gorm.DB
}

func NewPostgresListingStore(db *gorm.DB) *PostgresListingStore {
	return &PostgresListingStore{db: db}
}

type listingRecord struct {
	ID                string         `gorm:"primaryKey;column:pet_id;size:64"`
	Name              string         `gorm:"column:pet_name"`
	Species           string         `gorm:"column:pet_type;size:32;index"`
	ExactAge          *float64       `gorm:"column:exact_age"`
	AgeCategory       string         `gorm:"column:age_category;size:16;index"`
	Gender            string         `gorm:"column:gender;size:32"`
	Country           string         `gorm:"column:country;size:64;index"`
	Province          string         `gorm:"column:province;size:64"`
	Town              string         `gorm:"column:town"`
	Price             float64        `gorm:"column:price"`
	Description       string         `gorm:"column:description;type:text"`
	MainImageURL      string         `gorm:"column:main_image_url"`
	Images            pq.StringArray `gorm:"column:images;type:text[]"`
	Documents         pq.StringArray `gorm:"column:documents;type:text[]"`
	ContactName       string         `gorm:"column:contact_name"`
	ContactPhone      string         `gorm:"column:contact_phone"`
	OwnerID           string         `gorm:"column:owner_id;size:128;index"`
	Sterilized        bool           `gorm:"column:is_sterilized"`
	Vaccinated        bool           `gorm:"column:is_vaccinated"`
	Chipped           bool           `gorm:"column:has_chip"`
	ParasiteTreated   bool           `gorm:"column:has_parasite_treatment"`
	HasVetPassport    bool           `gorm:"column:has_vet_passport"`
	HasPedigree       bool           `gorm:"column:has_pedigree"`
	HasFCICertificate bool           `gorm:"column:has_fci_certificate"`
	CreatedAt         time.Time      `gorm:"column:created_at;index"`
	UpdatedAt         time.Time      `gorm:"column:updated_at"`
}

func (listingRecord) TableName() string { return "pets" }

var listingUpdateColumns = []string{
	"pet_name", "pet_type", "exact_age", "age_category", "gender", "country", "province", "town",
	"price", "description", "main_image_url", "images", "documents", "contact_name", "contact_phone",
	"owner_id", "is_sterilized", "is_vaccinated", "has_chip", "has_parasite_treatment",
	"has_vet_passport", "has_pedigree", "has_fci_certificate", "updated_at",
}

func (s *PostgresListingStore) All(ctx context.Context) ([]Record, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []listingRecord
	if err := s.db.WithContext(ctx).Order("created_at asc").Order("pet_id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(records))
	for i := range records {
		out = append(out, fromListingRecord(&records[i]))
	}
	return out, nil
}

func (s *PostgresListingStore) Get(ctx context.Context, id string) (Record, error) {
	if err := s.ensureDB(); err != nil {
		return Record{}, err
	}
	var rec listingRecord
	if err := s.db.WithContext(ctx).First(&rec, "pet_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return fromListingRecord(&rec), nil
}

func (s *PostgresListingStore) Put(ctx context.Context, listing domain.Listing) (Record, error) {
	if err := s.ensureDB(); err != nil {
		return Record{}, err
	}
	if strings.TrimSpace(listing.ID) == "" {
		return Record{}, errors.New("pet_id is required")
	}
	rec := toListingRecord(listing)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pet_id"}},
			DoUpdates: clause.AssignmentColumns(listingUpdateColumns),
		}).
		Create(&rec).Error
	if err != nil {
		return Record{}, err
	}
	return s.Get(ctx, listing.ID)
}

func (s *PostgresListingStore) Delete(ctx context.Context, id string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Delete(&listingRecord{}, "pet_id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresListingStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres listing store not configured")
	}
	return nil
}

func toListingRecord(l domain.Listing) listingRecord {
	return listingRecord{
		ID:                l.ID,
		Name:              l.Name,
		Species:           string(l.Species),
		ExactAge:          l.ExactAge,
		AgeCategory:       string(l.AgeCategory),
		Gender:            l.Gender,
		Country:           l.Country,
		Province:          l.Province,
		Town:              l.Town,
		Price:             domain.NormalizePrice(l.Price),
		Description:       l.Description,
		MainImageURL:      l.MainImageURL,
		Images:            pq.StringArray(append([]string{}, l.Images...)),
		Documents:         pq.StringArray(append([]string{}, l.Documents...)),
		ContactName:       l.ContactName,
		ContactPhone:      l.ContactPhone,
		OwnerID:           l.OwnerID,
		Sterilized:        l.Sterilized,
		Vaccinated:        l.Vaccinated,
		Chipped:           l.Chipped,
		ParasiteTreated:   l.ParasiteTreated,
		HasVetPassport:    l.HasVetPassport,
		HasPedigree:       l.HasPedigree,
		HasFCICertificate: l.HasFCICertificate,
	}
}

func fromListingRecord(rec *listingRecord) Record {
	listing := domain.Listing{
		ID:           rec.ID,
		Name:         rec.Name,
		Species:      domain.Species(rec.Species),
		ExactAge:     rec.ExactAge,
		AgeCategory:  domain.AgeCategory(rec.AgeCategory),
		Gender:       rec.Gender,
		Country:      rec.Country,
		Province:     rec.Province,
		Town:         rec.Town,
		Price:        rec.Price,
		Description:  rec.Description,
		MainImageURL: rec.MainImageURL,
		Images:       append([]string{}, rec.Images...),
		ContactName:  rec.ContactName,
		ContactPhone: rec.ContactPhone,
		OwnerID:      rec.OwnerID,
		HealthFlags: domain.HealthFlags{
			Sterilized:        rec.Sterilized,
			Vaccinated:        rec.Vaccinated,
			Chipped:           rec.Chipped,
			ParasiteTreated:   rec.ParasiteTreated,
			HasVetPassport:    rec.HasVetPassport,
			HasPedigree:       rec.HasPedigree,
			HasFCICertificate: rec.HasFCICertificate,
		},
	}
	if len(rec.Documents) > 0 {
		listing.Documents = append([]string{}, rec.Documents...)
	}
	return Record{
		Entity:   listing,
		Metadata: projection.Metadata{CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt},
	}
}

// PostgresObjectStore keeps uploaded files in a bytea column.
type PostgresObjectStore struct {
	db *gorm.DB
}

func NewPostgresObjectStore(db *gorm.DB) *PostgresObjectStore {
	return &PostgresObjectStore{db: db}
}

type objectRecord struct {
	Key         string    `gorm:"primaryKey;column:object_key;size:512"`
	ContentType string    `gorm:"column:content_type;size:128"`
	Data        []byte    `gorm:"column:data;type:bytea"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (objectRecord) TableName() string { return "dev_objects" }

func (s *PostgresObjectStore) PutObject(ctx context.Context, object Object) error {
	if s == nil || s.db == nil {
		return errors.New("postgres object store not configured")
	}
	rec := objectRecord{Key: object.Key, ContentType: object.ContentType, Data: object.Data}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "object_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"content_type", "data", "updated_at"}),
		}).
		Create(&rec).Error
}

func (s *PostgresObjectStore) GetObject(ctx context.Context, key string) (*Object, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("postgres object store not configured")
	}
	var rec objectRecord
	if err := s.db.WithContext(ctx).First(&rec, "object_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Object{Key: rec.Key, ContentType: rec.ContentType, Data: rec.Data}, nil
}

var (
	_ ListingStore = (*PostgresListingStore)(nil)
	_ ObjectStore  = (*PostgresObjectStore)(nil)
)
