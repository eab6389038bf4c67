package form

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
)

func filledCreateForm() *Form {
	f := NewCreateForm("owner-1")
	f.SetField(FieldName, "Rex")
	f.SetField(FieldSpecies, "Dog")
	f.SetField(FieldProvince, "Ontario")
	f.SetField(FieldContactName, "Ann")
	f.SetField(FieldContactPhone, "+1 555 0100")
	f.SelectMainImage(domain.ImageFile{Name: "a.jpg", Data: []byte("a")})
	return f
}

func TestSetField_ExactAgeDerivesCategory(t *testing.T) {
	f := NewCreateForm("owner-1")

	f.SetField(FieldExactAge, "1.5")
	draft := f.Draft()
	require.Equal(t, domain.AgeYoung, draft.AgeCategory)
	require.NotNil(t, draft.ExactAge)
	require.Equal(t, 1.5, *draft.ExactAge)

	f.SetField(FieldExactAge, "abc")
	draft = f.Draft()
	require.Equal(t, domain.AgeUnknown, draft.AgeCategory)
	require.Nil(t, draft.ExactAge)

	f.SetField(FieldExactAge, "9")
	require.Equal(t, domain.AgeSenior, f.Draft().AgeCategory)
}

func TestSetAgeCategoryManually_ClearsExactAge(t *testing.T) {
	f := NewCreateForm("owner-1")
	f.SetField(FieldExactAge, "4")
	require.Equal(t, domain.AgeAdult, f.Draft().AgeCategory)

	f.SetAgeCategoryManually(domain.AgeBaby)
	draft := f.Draft()
	require.Equal(t, domain.AgeBaby, draft.AgeCategory)
	require.Nil(t, draft.ExactAge)

	f.SetField(FieldExactAge, "8")
	f.SetField(FieldAgeCategory, "young")
	draft = f.Draft()
	require.Equal(t, domain.AgeYoung, draft.AgeCategory)
	require.Nil(t, draft.ExactAge)
}

func TestSetField_ScalarsAndFlags(t *testing.T) {
	f := NewCreateForm("owner-1")
	f.SetField(FieldPrice, "-20")
	require.Equal(t, 0.0, f.Draft().Price)
	f.SetField(FieldPrice, "149.99")
	require.Equal(t, 149.99, f.Draft().Price)
	f.SetField(FieldPrice, "free")
	require.Equal(t, 0.0, f.Draft().Price)

	f.SetField(FieldChipped, "on")
	f.SetField(FieldVaccinated, "true")
	f.SetField(FieldPedigree, "no")
	flags := f.Draft().HealthFlags
	require.True(t, flags.Chipped)
	require.True(t, flags.Vaccinated)
	require.False(t, flags.HasPedigree)

	f.SetField(FieldDocuments, "passport, pedigree ,")
	require.Equal(t, []string{"passport", "pedigree"}, f.Draft().Documents)
}

func TestParseField(t *testing.T) {
	field, ok := ParseField("contact_phone")
	require.True(t, ok)
	require.Equal(t, FieldContactPhone, field)

	_, ok = ParseField("owner_id")
	require.False(t, ok)
	_, ok = ParseField("main_image_url")
	require.False(t, ok)
	require.Len(t, Fields(), len(allFields))
}

func TestSubmit_InvokesCallbackWithSelection(t *testing.T) {
	f := filledCreateForm()
	f.SelectAdditionalImages([]domain.ImageFile{{Name: "b.jpg"}, {Name: "c.jpg"}})

	var got Submission
	err := f.Submit(context.Background(), func(_ context.Context, s Submission) error {
		got = s
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, StateSubmittedOk, f.State())
	require.Equal(t, ModeCreate, got.Mode)
	require.Equal(t, "Rex", got.Draft.Name)
	require.Equal(t, "owner-1", got.Draft.OwnerID)
	require.Equal(t, "Canada", got.Draft.Country)
	require.NotNil(t, got.MainImage)
	require.Equal(t, "a.jpg", got.MainImage.Name)
	require.Len(t, got.AdditionalImages, 2)
	require.Equal(t, "b.jpg", got.AdditionalImages[0].Name)

	err = f.Submit(context.Background(), func(context.Context, Submission) error { return nil })
	require.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSubmit_ValidationBlocksCallback(t *testing.T) {
	cases := map[string]func(f *Form){
		"missing name":         func(f *Form) { f.SetField(FieldName, "  ") },
		"missing contact":      func(f *Form) { f.SetField(FieldContactPhone, "") },
		"province not in list": func(f *Form) { f.SetField(FieldProvince, "Texas") },
		"unknown country":      func(f *Form) { f.SetField(FieldCountry, "Atlantis") },
		"unsupported species":  func(f *Form) { f.SetField(FieldSpecies, "Dragon") },
		"missing main image": func(f *Form) {
			*f = *NewCreateForm("owner-1")
			f.SetField(FieldName, "Rex")
			f.SetField(FieldSpecies, "Dog")
			f.SetField(FieldProvince, "Ontario")
			f.SetField(FieldContactName, "Ann")
			f.SetField(FieldContactPhone, "1")
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := filledCreateForm()
			mutate(f)
			called := false
			err := f.Submit(context.Background(), func(context.Context, Submission) error {
				called = true
				return nil
			})
			require.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.NotEmpty(t, verr.Fields)
			require.False(t, called)
			require.Equal(t, StateEditing, f.State())
		})
	}
}

func TestSubmit_CallbackFailureAllowsRetry(t *testing.T) {
	f := filledCreateForm()
	boom := errors.New("backend down")

	err := f.Submit(context.Background(), func(context.Context, Submission) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, StateSubmittedError, f.State())
	require.ErrorIs(t, f.Err(), boom)

	f.SetField(FieldTown, "Ottawa")
	err = f.Submit(context.Background(), func(_ context.Context, s Submission) error {
		require.Equal(t, "Ottawa", s.Draft.Town)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, StateSubmittedOk, f.State())
	require.NoError(t, f.Err())
}

func TestSubmit_IgnoresMutationsWhileSubmitting(t *testing.T) {
	f := filledCreateForm()
	err := f.Submit(context.Background(), func(_ context.Context, s Submission) error {
		f.SetField(FieldName, "Changed")
		require.ErrorIs(t, f.Submit(context.Background(), nil), ErrSubmissionInProgress)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "Rex", f.Draft().Name)
}

func TestSubmit_CancelledContext(t *testing.T) {
	f := filledCreateForm()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := f.Submit(ctx, func(context.Context, Submission) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
	require.Equal(t, StateEditing, f.State())
}

func TestEditForm_PreservesStoredImages(t *testing.T) {
	existing := domain.Listing{
		ID:           "pet-1",
		Name:         "Rex",
		Species:      domain.SpeciesDog,
		AgeCategory:  domain.AgeAdult,
		Country:      "Canada",
		Province:     "Quebec",
		ContactName:  "Ann",
		ContactPhone: "1",
		OwnerID:      "owner-1",
		MainImageURL: "https://cdn/pet-1/main.jpg",
		Images:       []string{"https://cdn/pet-1/b.jpg"},
	}
	f := NewEditForm(existing)
	f.SetField(FieldDescription, "friendly")

	var got Submission
	require.NoError(t, f.Submit(context.Background(), func(_ context.Context, s Submission) error {
		got = s
		return nil
	}))
	require.Equal(t, ModeEdit, got.Mode)
	require.False(t, got.HasNewImages())
	require.Equal(t, existing.MainImageURL, got.Draft.MainImageURL)
	require.Equal(t, existing.Images, got.Draft.Images)
	require.Equal(t, "owner-1", got.Draft.OwnerID)
	require.Equal(t, "friendly", got.Draft.Description)
}
