package query

import (
	"strconv"
	"strings"

	"equipmarket/internal/domain"
)

const MaxLimit = 1000

type EquipmentFilter struct {
	Name                string
	Manufacturer        string
	MinPrice            *int
	MaxPrice            *int
	ExcludeZeroQuantity bool
}

func (f EquipmentFilter) Predicate() (Predicate, error) {
	p, err := textAndPrice(f.Name, f.Manufacturer, f.MinPrice, f.MaxPrice)
	if err != nil {
		return Predicate{}, err
	}
	if f.ExcludeZeroQuantity {
		p = p.With(Condition{Field: FieldQuantity, Op: OpGt, Value: 0})
	}
	return p, nil
}

type HistoryFilter struct {
	Name         string
	Manufacturer string
	MinPrice     *int
	MaxPrice     *int
	Action       string
	Limit        int
	Offset       int
}

// Predicate builds the row conditions. Action values are checked by the ledger,
// which owns the set of known actions.
func (f HistoryFilter) Predicate() (Predicate, error) {
	p, err := textAndPrice(f.Name, f.Manufacturer, f.MinPrice, f.MaxPrice)
	if err != nil {
		return Predicate{}, err
	}
	if a := strings.TrimSpace(f.Action); a != "" {
		p = p.With(Condition{Field: FieldAction, Op: OpEq, Value: a})
	}
	if f.Limit < 0 {
		return Predicate{}, domain.NewValidationError("limit", "must not be negative")
	}
	if f.Limit > MaxLimit {
		return Predicate{}, domain.NewValidationError("limit", "must not exceed %d", MaxLimit)
	}
	if f.Offset < 0 {
		return Predicate{}, domain.NewValidationError("offset", "must not be negative")
	}
	return p, nil
}

func textAndPrice(name, manufacturer string, minPrice, maxPrice *int) (Predicate, error) {
	var p Predicate
	if v := strings.TrimSpace(name); v != "" {
		p = p.With(Condition{Field: FieldName, Op: OpContains, Value: v})
	}
	if v := strings.TrimSpace(manufacturer); v != "" {
		p = p.With(Condition{Field: FieldManufacturer, Op: OpContains, Value: v})
	}
	if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
		return Predicate{}, domain.NewValidationError("min_price", "must not be greater than max_price")
	}
	if minPrice != nil {
		p = p.With(Condition{Field: FieldPrice, Op: OpGte, Value: *minPrice})
	}
	if maxPrice != nil {
		p = p.With(Condition{Field: FieldPrice, Op: OpLte, Value: *maxPrice})
	}
	return p, nil
}

// OptionalInt parses a numeric query value. A missing or blank value means
// no bound and yields nil.
func OptionalInt(field, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be an integer")
	}
	return &v, nil
}

// PriceBounds parses the min_price and max_price query values.
func PriceBounds(minRaw, maxRaw string) (minPrice, maxPrice *int, err error) {
	if minPrice, err = OptionalInt("min_price", minRaw); err != nil {
		return nil, nil, err
	}
	if maxPrice, err = OptionalInt("max_price", maxRaw); err != nil {
		return nil, nil, err
	}
	return minPrice, maxPrice, nil
}
