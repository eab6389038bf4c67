package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the portal stores and the development backend.
// Adapters never automigrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&sessionRecord{},
		&idempotencyRecord{},
		&petRecord{},
		&objectRecord{},
	)
}

// Session schema mirrors the accounts session store.
type sessionRecord struct {
	Token         string    `gorm:"primaryKey;column:token;size:128"`
	AccessToken   string    `gorm:"column:access_token;size:4096"`
	UserID        string    `gorm:"column:user_id;size:128;index"`
	Email         string    `gorm:"column:email"`
	GivenName     string    `gorm:"column:given_name"`
	FamilyName    string    `gorm:"column:family_name"`
	EmailVerified bool      `gorm:"column:email_verified"`
	ExpiresAt     time.Time `gorm:"column:expires_at;index"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (sessionRecord) TableName() string { return "portal_sessions" }

// Idempotency schema mirrors the listings idempotency store.
type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	ListingID   string    `gorm:"column:listing_id;size:64"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "listing_idempotency_keys" }

// Pet schema mirrors the development backend listing store.
type petRecord struct {
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

func (petRecord) TableName() string { return "pets" }

// Object schema mirrors the development backend object store.
type objectRecord struct {
	Key         string    `gorm:"primaryKey;column:object_key;size:512"`
	ContentType string    `gorm:"column:content_type;size:128"`
	Data        []byte    `gorm:"column:data;type:bytea"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (objectRecord) TableName() string { return "dev_objects" }
