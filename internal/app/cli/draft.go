package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Apurer/pet-portal/internal/domains/listings/application/form"
	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
)

// Draft is a listing described in YAML, keyed by form field name:
//
//	pet_name: Rex
//	pet_type: Dog
//	exact_age: 2
//	documents: [vet-card.pdf]
//	isVaccinated: true
type Draft map[string]any

// ReadDraft parses a YAML draft file.
func ReadDraft(path string) (Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}
	var draft Draft
	if err := yaml.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("parse draft %s: %w", path, err)
	}
	return draft, nil
}

// Apply sets every draft value on listingForm in form order. Unknown keys are
// rejected, and a non-empty exact age wins over an age category.
func (d Draft) Apply(listingForm *form.Form) error {
	for key := range d {
		if _, ok := form.ParseField(key); !ok {
			return fmt.Errorf("unknown listing field %q", key)
		}
	}
	hasExactAge := strings.TrimSpace(draftValue(d[form.FieldExactAge.Key()])) != ""
	for _, field := range form.Fields() {
		raw, ok := d[field.Key()]
		if !ok || (field == form.FieldAgeCategory && hasExactAge) {
			continue
		}
		listingForm.SetField(field, draftValue(raw))
	}
	return nil
}

func draftValue(raw any) string {
	switch value := raw.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case int:
		return strconv.Itoa(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			parts = append(parts, draftValue(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(value)
	}
}

// ReadImage loads a local image file for upload.
func ReadImage(path string) (domain.ImageFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ImageFile{}, fmt.Errorf("read image: %w", err)
	}
	name := filepath.Base(path)
	return domain.ImageFile{
		Name:        name,
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(name))),
		Data:        data,
	}, nil
}
