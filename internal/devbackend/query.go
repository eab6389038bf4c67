package devbackend

import (
	"encoding/base64"
	"errors"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var errBadNextToken = errors.New("invalid nextToken")

// Query is a parsed GET /pets request.
type Query struct {
	Type     string
	Age      string
	Sort     string
	Country  string
	Province string
	Town     string
	Gender   string
	Price    *float64
	MinPrice *float64
	MaxPrice *float64
	Limit    int
	Offset   int
}

// ParseQuery reads the search parameters. Malformed numbers are ignored, as
// the backend has always done; a malformed nextToken is an error.
func ParseQuery(values url.Values) (Query, error) {
	q := Query{
		Type:     strings.TrimSpace(values.Get("type")),
		Age:      strings.TrimSpace(values.Get("age")),
		Sort:     strings.TrimSpace(values.Get("sort")),
		Country:  strings.TrimSpace(values.Get("country")),
		Province: strings.TrimSpace(values.Get("province")),
		Town:     strings.TrimSpace(values.Get("town")),
		Gender:   strings.TrimSpace(values.Get("gender")),
		Price:    optionalFloat(values.Get("price")),
		MinPrice: optionalFloat(values.Get("min_price")),
		MaxPrice: optionalFloat(values.Get("max_price")),
		Limit:    defaultPageSize,
	}
	if limit, err := strconv.Atoi(strings.TrimSpace(values.Get("limit"))); err == nil && limit > 0 {
		q.Limit = min(limit, maxPageSize)
	}
	if token := strings.TrimSpace(values.Get("nextToken")); token != "" {
		offset, err := decodeToken(token)
		if err != nil {
			return Query{}, err
		}
		q.Offset = offset
	}
	return q, nil
}

// Apply filters, sorts and pages the listings. The returned token is empty on the last page.
func (q Query) Apply(records []Record) ([]domain.Listing, string) {
	matched := make([]domain.Listing, 0, len(records))
	for _, rec := range records {
		if q.matches(rec.Entity) {
			matched = append(matched, rec.Entity)
		}
	}
	sortListings(matched, q.Sort)

	if q.Offset >= len(matched) {
		return []domain.Listing{}, ""
	}
	end := min(q.Offset+q.Limit, len(matched))
	next := ""
	if end < len(matched) {
		next = encodeToken(end)
	}
	return matched[q.Offset:end], next
}

func (q Query) matches(l domain.Listing) bool {
	switch {
	case q.Type != "" && !strings.EqualFold(string(l.Species), q.Type):
		return false
	case q.Age != "" && !strings.EqualFold(string(l.AgeCategory), q.Age):
		return false
	case q.Country != "" && l.Country != q.Country:
		return false
	case q.Province != "" && l.Province != q.Province:
		return false
	case q.Town != "" && !strings.EqualFold(strings.TrimSpace(l.Town), q.Town):
		return false
	case q.Gender != "" && !strings.EqualFold(l.Gender, q.Gender):
		return false
	case q.Price != nil && l.Price > *q.Price:
		return false
	case q.MinPrice != nil && l.Price < *q.MinPrice:
		return false
	case q.MaxPrice != nil && l.Price > *q.MaxPrice:
		return false
	}
	return true
}

func sortListings(listings []domain.Listing, order string) {
	var less func(a, b domain.Listing) bool
	switch order {
	case listingtypes.SortName:
		less = func(a, b domain.Listing) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case listingtypes.SortType:
		less = func(a, b domain.Listing) bool { return a.Species < b.Species }
	case listingtypes.SortAge:
		less = func(a, b domain.Listing) bool { return ageRank(a) < ageRank(b) }
	case listingtypes.SortPriceAsc:
		less = func(a, b domain.Listing) bool { return a.Price < b.Price }
	case listingtypes.SortPriceDesc:
		less = func(a, b domain.Listing) bool { return a.Price > b.Price }
	default:
		return
	}
	sort.SliceStable(listings, func(i, j int) bool { return less(listings[i], listings[j]) })
}

// ageRank orders by exact age, falling back to the middle of the category.
func ageRank(l domain.Listing) float64 {
	if l.ExactAge != nil {
		return *l.ExactAge
	}
	switch l.AgeCategory {
	case domain.AgeBaby:
		return 0.5
	case domain.AgeYoung:
		return 2
	case domain.AgeAdult:
		return 5
	case domain.AgeSenior:
		return 9
	}
	return math.Inf(1)
}

func optionalFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) {
		return nil
	}
	return &value
}

func encodeToken(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodeToken(token string) (int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, errBadNextToken
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0, errBadNextToken
	}
	return offset, nil
}
