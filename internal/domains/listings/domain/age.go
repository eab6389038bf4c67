package domain

import (
	"math"
	"strconv"
	"strings"
)

// AgeCategory is a coarse life-stage bucket.
type AgeCategory string

const (
	AgeBaby    AgeCategory = "Baby"
	AgeYoung   AgeCategory = "Young"
	AgeAdult   AgeCategory = "Adult"
	AgeSenior  AgeCategory = "Senior"
	AgeUnknown AgeCategory = "Unknown"
)

// CategoryForAge buckets an exact age in years.
func CategoryForAge(years float64) AgeCategory {
	switch {
	case math.IsNaN(years) || math.IsInf(years, 0) || years < 0:
		return AgeUnknown
	case years < 1:
		return AgeBaby
	case years <= 2:
		return AgeYoung
	case years <= 7:
		return AgeAdult
	default:
		return AgeSenior
	}
}

// ParseExactAge reads a user-entered age. ok is false for empty,
// non-numeric or negative input.
func ParseExactAge(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	years, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(years) || math.IsInf(years, 0) || years < 0 {
		return 0, false
	}
	return years, true
}

// DeriveAgeCategory maps raw exact-age input to its category.
func DeriveAgeCategory(raw string) AgeCategory {
	years, ok := ParseExactAge(raw)
	if !ok {
		return AgeUnknown
	}
	return CategoryForAge(years)
}

// ParseAgeCategory matches a category case-insensitively. Unknown is accepted.
func ParseAgeCategory(raw string) (AgeCategory, bool) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, string(AgeUnknown)) {
		return AgeUnknown, true
	}
	for _, candidate := range AgeCategories {
		if strings.EqualFold(string(candidate), raw) {
			return candidate, true
		}
	}
	return AgeCategory(raw), false
}
