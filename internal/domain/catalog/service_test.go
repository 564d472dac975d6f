package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"equipmarket/internal/database/dbtest"
	"equipmarket/internal/domain"
	"equipmarket/internal/domain/history"
	"equipmarket/internal/query"
)

var (
	seller = domain.Session{Username: "anna", Role: domain.RoleSeller}
	admin  = domain.Session{Username: "root", Role: domain.RoleAdmin}
	buyer  = domain.GuestSession()
)

type fixture struct {
	svc    *Service
	repo   *Repository
	ledger *history.Repository
}

func setup(t *testing.T, opts ...Option) fixture {
	t.Helper()
	db := dbtest.Open(t, &Item{}, &history.Entry{})
	repo := NewRepository(db)
	ledger := history.NewRepository(db)
	return fixture{svc: NewService(repo, ledger, opts...), repo: repo, ledger: ledger}
}

func validRequest(name string, price, qty int) EquipmentRequest {
	return EquipmentRequest{
		Name:         name,
		Model:        "RX-1",
		Manufacturer: "Acme",
		Description:  "Dual band",
		Price:        price,
		Quantity:     qty,
	}
}

func allEntries(t *testing.T, f fixture) []history.Entry {
	t.Helper()
	entries, err := f.ledger.List(context.Background(), query.HistoryFilter{})
	require.NoError(t, err)
	return entries
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, seller, validRequest("  Router X  ", 1200, 3))
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Router X", got.Name)
	assert.Equal(t, "RX-1", got.Model)
	assert.Equal(t, "Acme", got.Manufacturer)
	assert.Equal(t, "Dual band", got.Description)
	assert.Equal(t, 1200, got.Price)
	assert.Equal(t, 3, got.Quantity)
	assert.Nil(t, got.ImageRef)

	entries := allEntries(t, f)
	require.Len(t, entries, 1)
	assert.Equal(t, history.ActionAdded, entries[0].Action)
	assert.Equal(t, created.ID, entries[0].EquipmentID)
	require.NotNil(t, entries[0].Seller)
	assert.Equal(t, "anna", *entries[0].Seller)
	assert.Nil(t, entries[0].Buyer)
}

func TestCreateValidation(t *testing.T) {
	cases := []struct {
		name  string
		req   EquipmentRequest
		field string
	}{
		{name: "price zero", req: validRequest("A", 0, 1), field: "price"},
		{name: "price too high", req: validRequest("A", 250001, 1), field: "price"},
		{name: "quantity zero", req: validRequest("A", 10, 0), field: "quantity"},
		{name: "quantity too high", req: validRequest("A", 10, 65), field: "quantity"},
		{name: "blank name", req: validRequest("   ", 10, 1), field: "name"},
		{name: "blank description", req: func() EquipmentRequest {
			r := validRequest("A", 10, 1)
			r.Description = "\t"
			return r
		}(), field: "description"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t)
			_, err := f.svc.Create(context.Background(), seller, tc.req)
			require.ErrorIs(t, err, domain.ErrValidation)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)

			items, err := f.svc.List(context.Background(), query.EquipmentFilter{})
			require.NoError(t, err)
			assert.Empty(t, items)
			assert.Empty(t, allEntries(t, f))
		})
	}
}

func TestBoundaryValuesAccepted(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Create(context.Background(), seller, validRequest("Low", 1, 1))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), seller, validRequest("High", 250000, 64))
	require.NoError(t, err)
}

func TestBuyerCannotManageCatalog(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, buyer, validRequest("A", 10, 1))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Update(ctx, buyer, 1, validRequest("A", 10, 1))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.ErrorIs(t, f.svc.Delete(ctx, buyer, 1), domain.ErrForbidden)
}

func TestUpdateThenGetWithSingleEditedEntry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, seller, validRequest("Router X", 1200, 3))
	require.NoError(t, err)

	req := validRequest("Router X2", 1300, 5)
	req.Manufacturer = "Globex"
	_, err = f.svc.Update(ctx, admin, created.ID, req)
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Router X2", got.Name)
	assert.Equal(t, "Globex", got.Manufacturer)
	assert.Equal(t, 1300, got.Price)
	assert.Equal(t, 5, got.Quantity)

	entries, err := f.ledger.List(ctx, query.HistoryFilter{Action: string(history.ActionEdited)})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Router X2", entries[0].EquipmentName)
	assert.Equal(t, 5, entries[0].Quantity)
	assert.Equal(t, "root", *entries[0].Seller)
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Update(context.Background(), seller, 404, validRequest("A", 10, 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, allEntries(t, f))
}

func TestGetMissingIsNotFound(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Get(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteIsIdempotentAndKeepsSnapshot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, seller, validRequest("Router X", 1200, 3))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, seller, created.ID))
	_, err = f.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.svc.Delete(ctx, seller, created.ID))

	entries := allEntries(t, f)
	require.Len(t, entries, 2)
	assert.Equal(t, history.ActionRemoved, entries[0].Action)
	assert.Equal(t, "Router X", entries[0].EquipmentName)
	assert.Equal(t, 3, entries[0].Quantity)
	assert.Equal(t, created.ID, entries[0].EquipmentID)
}

func TestListOrderAndVisibility(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, seller, validRequest("A", 500, 1))
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, seller, validRequest("B", 1500, 2))
	require.NoError(t, err)
	c, err := f.svc.Create(ctx, seller, validRequest("C", 3000, 3))
	require.NoError(t, err)

	ok, err := f.repo.CompareAndSetQuantity(f.repo.DB(), b.ID, 2, 0)
	require.NoError(t, err)
	require.True(t, ok)

	all, err := f.svc.ListFor(ctx, seller, query.EquipmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	visible, err := f.svc.ListFor(ctx, buyer, query.EquipmentFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 2)
	for _, it := range visible {
		assert.NotEqual(t, b.ID, it.ID)
	}
}

func TestPriceRangeListing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, p := range []int{500, 1500, 3000} {
		_, err := f.svc.Create(ctx, seller, validRequest("Item", p, 1))
		require.NoError(t, err)
	}

	lo, hi := 1000, 2000
	items, err := f.svc.List(ctx, query.EquipmentFilter{MinPrice: &lo, MaxPrice: &hi})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1500, items[0].Price)

	_, err = f.svc.List(ctx, query.EquipmentFilter{MinPrice: &hi, MaxPrice: &lo})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClearAll(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, seller, validRequest("A", 10, 1))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, seller, validRequest("B", 10, 1))
	require.NoError(t, err)

	n, err := f.svc.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	items, err := f.svc.List(ctx, query.EquipmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

type stubImages map[string]bool

func (s stubImages) Exists(ref string) bool       { return s[ref] }
func (s stubImages) PreviewURL(ref string) string { return "/img/" + ref }

func TestImageRefMustExist(t *testing.T) {
	f := setup(t, WithImages(stubImages{"images/2026/10/a.png": true}))
	ctx := context.Background()

	req := validRequest("Camera", 3000, 1)
	missing := "images/2026/10/missing.png"
	req.ImageRef = &missing
	_, err := f.svc.Create(ctx, seller, req)
	assert.ErrorIs(t, err, domain.ErrValidation)

	ok := "images/2026/10/a.png"
	req.ImageRef = &ok
	created, err := f.svc.Create(ctx, seller, req)
	require.NoError(t, err)
	assert.Equal(t, "/img/images/2026/10/a.png", f.svc.Respond(created).ImageURL)

	blank := "   "
	req.ImageRef = &blank
	created, err = f.svc.Create(ctx, seller, req)
	require.NoError(t, err)
	assert.Nil(t, created.ImageRef)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Lookup(ctx context.Context, f query.EquipmentFilter) ([]domain.Equipment, string, bool) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]domain.Equipment)
	return items, args.String(1), args.Bool(2)
}

func (m *mockCache) Store(ctx context.Context, key string, items []domain.Equipment) {
	m.Called(ctx, key, items)
}

func (m *mockCache) Invalidate(ctx context.Context) {
	m.Called(ctx)
}

func TestListServedFromCache(t *testing.T) {
	cache := new(mockCache)
	f := setup(t, WithCache(cache))
	ctx := context.Background()

	cached := []domain.Equipment{{ID: 77, Name: "Cached"}}
	cache.On("Lookup", ctx, query.EquipmentFilter{}).Return(cached, "k1", true).Once()

	items, err := f.svc.List(ctx, query.EquipmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, cached, items)
	cache.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
}

func TestListMissStoresAndWritesInvalidate(t *testing.T) {
	cache := new(mockCache)
	f := setup(t, WithCache(cache))
	ctx := context.Background()

	cache.On("Invalidate", ctx).Return()
	created, err := f.svc.Create(ctx, seller, validRequest("A", 10, 1))
	require.NoError(t, err)

	cache.On("Lookup", ctx, query.EquipmentFilter{}).Return(nil, "k2", false).Once()
	cache.On("Store", ctx, "k2", mock.MatchedBy(func(items []domain.Equipment) bool {
		return len(items) == 1 && items[0].ID == created.ID
	})).Return().Once()

	_, err = f.svc.List(ctx, query.EquipmentFilter{})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, seller, created.ID))
	cache.AssertNumberOfCalls(t, "Invalidate", 2)
	cache.AssertExpectations(t)
}

func TestFilterKeyDistinguishesBounds(t *testing.T) {
	one, two := 1, 2
	assert.NotEqual(t,
		FilterKey(query.EquipmentFilter{MinPrice: &one}),
		FilterKey(query.EquipmentFilter{MaxPrice: &one}))
	assert.NotEqual(t,
		FilterKey(query.EquipmentFilter{MinPrice: &one}),
		FilterKey(query.EquipmentFilter{MinPrice: &two}))
	assert.Equal(t,
		FilterKey(query.EquipmentFilter{Name: "a", MinPrice: &one}),
		FilterKey(query.EquipmentFilter{Name: "a", MinPrice: &one}))
}
