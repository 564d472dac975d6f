package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipmarket/internal/database/dbtest"
	"equipmarket/internal/domain"
)

type item struct {
	ID           int64 `gorm:"primaryKey"`
	Name         string
	Manufacturer string
	Price        int
	Quantity     int
}

var itemColumns = Columns{
	FieldName:         "name",
	FieldManufacturer: "manufacturer",
	FieldPrice:        "price",
	FieldQuantity:     "quantity",
}

func intPtr(v int) *int { return &v }

func seedItems(t *testing.T) []item {
	t.Helper()
	return []item{
		{Name: "Router X", Manufacturer: "Acme", Price: 500, Quantity: 3},
		{Name: "Switch 24", Manufacturer: "Netgear", Price: 1500, Quantity: 0},
		{Name: "Camera 100%", Manufacturer: "Canon", Price: 3000, Quantity: 1},
		{Name: "Cable_cat6", Manufacturer: "acme", Price: 20, Quantity: 64},
	}
}

func runFilter(t *testing.T, p Predicate) []string {
	t.Helper()
	db := dbtest.Open(t, &item{})
	items := seedItems(t)
	require.NoError(t, db.Create(&items).Error)

	var out []item
	require.NoError(t, db.Model(&item{}).Scopes(p.Scope(itemColumns)).Order("id asc").Find(&out).Error)

	names := make([]string, 0, len(out))
	for _, it := range out {
		names = append(names, it.Name)
	}
	return names
}

func matchNames(t *testing.T, p Predicate) []string {
	t.Helper()
	var names []string
	for _, it := range seedItems(t) {
		if p.Match(Row{Name: it.Name, Manufacturer: it.Manufacturer, Price: it.Price, Quantity: it.Quantity}) {
			names = append(names, it.Name)
		}
	}
	if names == nil {
		names = []string{}
	}
	return names
}

func TestPriceRangeFilter(t *testing.T) {
	p, err := EquipmentFilter{MinPrice: intPtr(1000), MaxPrice: intPtr(2000)}.Predicate()
	require.NoError(t, err)

	assert.Equal(t, []string{"Switch 24"}, runFilter(t, p))
	assert.Equal(t, []string{"Switch 24"}, matchNames(t, p))
}

func TestManufacturerIsCaseInsensitiveSubstring(t *testing.T) {
	p, err := EquipmentFilter{Manufacturer: "ACM"}.Predicate()
	require.NoError(t, err)

	assert.Equal(t, []string{"Router X", "Cable_cat6"}, runFilter(t, p))
	assert.Equal(t, []string{"Router X", "Cable_cat6"}, matchNames(t, p))
}

func TestLikeMetacharactersAreLiteral(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "percent", input: "%", want: []string{"Camera 100%"}},
		{name: "underscore", input: "_", want: []string{"Cable_cat6"}},
		{name: "bang", input: "!", want: []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := EquipmentFilter{Name: tc.input}.Predicate()
			require.NoError(t, err)
			assert.Equal(t, tc.want, runFilter(t, p))
			assert.Equal(t, tc.want, matchNames(t, p))
		})
	}
}

func TestInjectionAttemptIsTreatedAsText(t *testing.T) {
	p, err := EquipmentFilter{Name: "x' OR '1'='1"}.Predicate()
	require.NoError(t, err)

	assert.Empty(t, runFilter(t, p))
}

func TestExcludeZeroQuantity(t *testing.T) {
	p, err := EquipmentFilter{ExcludeZeroQuantity: true}.Predicate()
	require.NoError(t, err)

	got := runFilter(t, p)
	assert.NotContains(t, got, "Switch 24")
	assert.Len(t, got, 3)
	assert.Equal(t, got, matchNames(t, p))
}

func TestEmptyFilterMatchesAll(t *testing.T) {
	p, err := EquipmentFilter{Name: "   "}.Predicate()
	require.NoError(t, err)

	assert.True(t, p.Empty())
	assert.Len(t, runFilter(t, p), 4)
}

func TestMinGreaterThanMaxIsValidationError(t *testing.T) {
	_, err := EquipmentFilter{MinPrice: intPtr(10), MaxPrice: intPtr(5)}.Predicate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "min_price", ve.Field)
}

func TestHistoryFilterPaging(t *testing.T) {
	_, err := HistoryFilter{Limit: -1}.Predicate()
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = HistoryFilter{Limit: MaxLimit + 1}.Predicate()
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = HistoryFilter{Offset: -5}.Predicate()
	assert.ErrorIs(t, err, domain.ErrValidation)

	p, err := HistoryFilter{Action: " Reserved ", Limit: 10}.Predicate()
	require.NoError(t, err)
	assert.True(t, p.Match(Row{Action: "Reserved"}))
	assert.False(t, p.Match(Row{Action: "Removed"}))
}

func TestScopeRejectsUnmappedField(t *testing.T) {
	db := dbtest.Open(t, &item{})
	p := Predicate{}.With(Condition{Field: FieldAction, Op: OpEq, Value: "Added"})

	var out []item
	err := db.Model(&item{}).Scopes(p.Scope(itemColumns)).Find(&out).Error
	assert.Error(t, err)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "50!% off!_now!!", EscapeLike("50% off_now!"))
}

func TestPriceBoundsBlankMeansNoBound(t *testing.T) {
	minPrice, maxPrice, err := PriceBounds("", "  ")
	require.NoError(t, err)
	assert.Nil(t, minPrice)
	assert.Nil(t, maxPrice)

	p, err := EquipmentFilter{MinPrice: minPrice, MaxPrice: maxPrice}.Predicate()
	require.NoError(t, err)
	assert.True(t, p.Empty())

	minPrice, maxPrice, err = PriceBounds("100", "")
	require.NoError(t, err)
	require.NotNil(t, minPrice)
	assert.Equal(t, 100, *minPrice)
	assert.Nil(t, maxPrice)

	_, _, err = PriceBounds("", "lots")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "max_price", ve.Field)
}
