// Package form holds the listing draft a user edits before submitting it.
package form

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
)

// Mode tells whether the form creates a new listing or edits a stored one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// State is the lifecycle position of a form session.
type State string

const (
	StateEditing        State = "editing"
	StateSubmitting     State = "submitting"
	StateSubmittedOk    State = "submitted_ok"
	StateSubmittedError State = "submitted_error"
)

var (
	ErrSubmissionInProgress = errors.New("listing submission already in progress")
	ErrAlreadySubmitted     = errors.New("listing already submitted")
)

// Submission is what the form hands to the submit callback.
type Submission struct {
	Mode             Mode
	Draft            domain.Listing
	MainImage        *domain.ImageFile
	AdditionalImages []domain.ImageFile
}

// HasNewImages reports whether the user picked any file in this session.
func (s Submission) HasNewImages() bool {
	return s.MainImage != nil || len(s.AdditionalImages) > 0
}

// SubmitFunc receives a validated submission.
type SubmitFunc func(ctx context.Context, submission Submission) error

// Form owns one listing draft and the pending image selections.
// A Form belongs to a single session and is not safe for concurrent use.
type Form struct {
	mode       Mode
	state      State
	draft      domain.Listing
	mainImage  *domain.ImageFile
	additional []domain.ImageFile
	lastErr    error
}

// NewCreateForm starts an empty draft owned by ownerID.
func NewCreateForm(ownerID string) *Form {
	return &Form{
		mode:  ModeCreate,
		state: StateEditing,
		draft: domain.Listing{
			Country:     domain.DefaultCountry,
			AgeCategory: domain.AgeUnknown,
			Images:      []string{},
			OwnerID:     strings.TrimSpace(ownerID),
		},
	}
}

// NewEditForm seeds the draft from a stored listing. Stored image
// references survive unless new files are selected.
func NewEditForm(existing domain.Listing) *Form {
	draft := existing.Clone()
	if draft.Country == "" {
		draft.Country = domain.DefaultCountry
	}
	if draft.AgeCategory == "" {
		draft.AgeCategory = domain.AgeUnknown
	}
	if draft.Images == nil {
		draft.Images = []string{}
	}
	draft.Price = domain.NormalizePrice(draft.Price)
	return &Form{mode: ModeEdit, state: StateEditing, draft: draft}
}

func (f *Form) Mode() Mode   { return f.mode }
func (f *Form) State() State { return f.state }

// Err returns the error of the last failed submission, if any.
func (f *Form) Err() error { return f.lastErr }

// Draft returns a copy of the current draft.
func (f *Form) Draft() domain.Listing { return f.draft.Clone() }

// MainImage returns the pending main image selection.
func (f *Form) MainImage() *domain.ImageFile { return f.mainImage }

// AdditionalImages returns the pending gallery selection in order.
func (f *Form) AdditionalImages() []domain.ImageFile {
	return append([]domain.ImageFile{}, f.additional...)
}

func (f *Form) mutable() bool {
	return f.state == StateEditing || f.state == StateSubmittedError
}

// SetField updates one scalar of the draft. Changing the exact age re-derives
// the age category; setting the category is a manual selection.
func (f *Form) SetField(field Field, value string) {
	if !f.mutable() {
		return
	}
	switch {
	case field == FieldName:
		f.draft.Name = value
	case field == FieldSpecies:
		species, _ := domain.ParseSpecies(value)
		f.draft.Species = species
	case field == FieldExactAge:
		f.setExactAge(value)
	case field == FieldAgeCategory:
		category, _ := domain.ParseAgeCategory(value)
		f.SetAgeCategoryManually(category)
	case field == FieldGender:
		f.draft.Gender = strings.TrimSpace(value)
	case field == FieldCountry:
		f.draft.Country = strings.TrimSpace(value)
	case field == FieldProvince:
		f.draft.Province = strings.TrimSpace(value)
	case field == FieldTown:
		f.draft.Town = value
	case field == FieldPrice:
		f.draft.Price = parsePrice(value)
	case field == FieldDescription:
		f.draft.Description = value
	case field == FieldContactName:
		f.draft.ContactName = value
	case field == FieldContactPhone:
		f.draft.ContactPhone = value
	case field == FieldDocuments:
		f.draft.Documents = splitList(value)
	case field.isFlag():
		f.setFlag(field, parseBool(value))
	}
}

// SetAgeCategoryManually selects a category and clears the exact age.
func (f *Form) SetAgeCategoryManually(category domain.AgeCategory) {
	if !f.mutable() {
		return
	}
	f.draft.AgeCategory = category
	f.draft.ExactAge = nil
}

// SelectMainImage stores the main image selection. Nothing is uploaded yet.
func (f *Form) SelectMainImage(file domain.ImageFile) {
	if !f.mutable() {
		return
	}
	selected := file
	f.mainImage = &selected
}

// SelectAdditionalImages replaces the gallery selection. Zero files is valid.
func (f *Form) SelectAdditionalImages(files []domain.ImageFile) {
	if !f.mutable() {
		return
	}
	f.additional = append([]domain.ImageFile{}, files...)
}

// Validate checks the draft without changing state.
func (f *Form) Validate() error {
	problems := map[string]string{}
	if strings.TrimSpace(f.draft.Name) == "" {
		problems[FieldName.key] = domain.ErrEmptyName.Error()
	}
	if strings.TrimSpace(string(f.draft.Species)) == "" || !domain.ValidSpecies(f.draft.Species) {
		problems[FieldSpecies.key] = domain.ErrUnknownSpecies.Error()
	}
	if _, ok := domain.ParseAgeCategory(string(f.draft.AgeCategory)); !ok {
		problems[FieldAgeCategory.key] = domain.ErrInvalidAgeCategory.Error()
	}
	if !domain.ValidCountry(f.draft.Country) {
		problems[FieldCountry.key] = domain.ErrUnknownCountry.Error()
	}
	if !domain.ProvinceBelongsTo(f.draft.Country, f.draft.Province) {
		problems[FieldProvince.key] = domain.ErrUnknownProvince.Error()
	}
	if strings.TrimSpace(f.draft.ContactName) == "" {
		problems[FieldContactName.key] = domain.ErrEmptyContact.Error()
	}
	if strings.TrimSpace(f.draft.ContactPhone) == "" {
		problems[FieldContactPhone.key] = domain.ErrEmptyContact.Error()
	}
	if f.mode == ModeCreate && f.mainImage == nil {
		problems["main_image"] = domain.ErrMissingMainImage.Error()
	}
	if f.mode == ModeEdit && f.mainImage == nil && strings.TrimSpace(f.draft.MainImageURL) == "" {
		problems["main_image"] = domain.ErrMissingMainImage.Error()
	}
	if len(problems) > 0 {
		return &ValidationError{Fields: problems}
	}
	return nil
}

// Submit validates the draft and, when valid, hands it to fn. A validation
// failure keeps the form editable and never calls fn.
func (f *Form) Submit(ctx context.Context, fn SubmitFunc) error {
	switch f.state {
	case StateSubmitting:
		return ErrSubmissionInProgress
	case StateSubmittedOk:
		return ErrAlreadySubmitted
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.state = StateSubmitting
	f.lastErr = nil
	submission := Submission{
		Mode:             f.mode,
		Draft:            f.draft.Clone(),
		AdditionalImages: f.AdditionalImages(),
	}
	if f.mainImage != nil {
		main := *f.mainImage
		submission.MainImage = &main
	}
	if err := fn(ctx, submission); err != nil {
		f.state = StateSubmittedError
		f.lastErr = err
		return err
	}
	f.state = StateSubmittedOk
	return nil
}

func (f *Form) setExactAge(raw string) {
	years, ok := domain.ParseExactAge(raw)
	if ok {
		f.draft.ExactAge = &years
	} else {
		f.draft.ExactAge = nil
	}
	f.draft.AgeCategory = domain.DeriveAgeCategory(raw)
}

func (f *Form) setFlag(field Field, value bool) {
	flags := &f.draft.HealthFlags
	switch field {
	case FieldSterilized:
		flags.Sterilized = value
	case FieldVaccinated:
		flags.Vaccinated = value
	case FieldChipped:
		flags.Chipped = value
	case FieldParasiteTreated:
		flags.ParasiteTreated = value
	case FieldVetPassport:
		flags.HasVetPassport = value
	case FieldPedigree:
		flags.HasPedigree = value
	case FieldFCICertificate:
		flags.HasFCICertificate = value
	}
}

func parsePrice(raw string) float64 {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return domain.NormalizePrice(price)
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
