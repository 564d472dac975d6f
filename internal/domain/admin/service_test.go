package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"equipmarket/internal/database/dbtest"
	"equipmarket/internal/domain"
	"equipmarket/internal/domain/catalog"
	"equipmarket/internal/domain/history"
	"equipmarket/internal/events"
	"equipmarket/internal/middleware"
	"equipmarket/internal/pkg/jwt"
	"equipmarket/internal/query"
)

var adminSession = domain.Session{Username: "root", Role: domain.RoleAdmin}

type MockClearer struct {
	mock.Mock
}

func (m *MockClearer) ClearAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return int64(args.Int(0)), args.Error(1)
}

type recorder struct{ got []events.Event }

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.got = append(r.got, e)
	return nil
}

func TestWipeClearsCatalogAndHistory(t *testing.T) {
	db := dbtest.Open(t, &catalog.Item{}, &history.Entry{})
	ledger := history.NewRepository(db)
	cat := catalog.NewService(catalog.NewRepository(db), ledger)
	ctx := context.Background()

	for _, name := range []string{"A", "B"} {
		_, err := cat.Create(ctx, adminSession, catalog.EquipmentRequest{
			Name: name, Model: "M", Manufacturer: "Acme", Description: "d", Price: 100, Quantity: 2,
		})
		require.NoError(t, err)
	}

	rec := &recorder{}
	res, err := NewService(cat, ledger, rec).Wipe(ctx, adminSession)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Equipment)
	assert.Equal(t, int64(2), res.History)

	items, err := cat.List(ctx, query.EquipmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	entries, err := ledger.List(ctx, query.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.Len(t, rec.got, 1)
	assert.Equal(t, events.TypeWiped, rec.got[0].Type)
	assert.Equal(t, "root", rec.got[0].Actor)
}

func TestWipeRequiresAdmin(t *testing.T) {
	cat, ledger := new(MockClearer), new(MockClearer)
	svc := NewService(cat, ledger, nil)

	_, err := svc.Wipe(context.Background(), domain.Session{Username: "anna", Role: domain.RoleSeller})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	cat.AssertNotCalled(t, "ClearAll", mock.Anything)
	ledger.AssertNotCalled(t, "ClearAll", mock.Anything)
}

func TestWipeHistoryFailureIsPartial(t *testing.T) {
	cat, ledger := new(MockClearer), new(MockClearer)
	cat.On("ClearAll", mock.Anything).Return(3, nil)
	ledger.On("ClearAll", mock.Anything).Return(0, errors.New("disk I/O error"))

	res, err := NewService(cat, ledger, nil).Wipe(context.Background(), adminSession)

	var pf *domain.PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.ErrorIs(t, err, domain.ErrPartialFailure)
	assert.Equal(t, "catalog", pf.Completed)
	assert.Equal(t, "history", pf.Failed)
	assert.Equal(t, int64(3), res.Equipment)
	cat.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestWipeCatalogFailureLeavesHistory(t *testing.T) {
	cat, ledger := new(MockClearer), new(MockClearer)
	cat.On("ClearAll", mock.Anything).Return(0, errors.New("database is closed"))

	_, err := NewService(cat, ledger, nil).Wipe(context.Background(), adminSession)

	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.NotErrorIs(t, err, domain.ErrPartialFailure)
	ledger.AssertNotCalled(t, "ClearAll", mock.Anything)
}

func TestWipeEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cat, ledger := new(MockClearer), new(MockClearer)
	cat.On("ClearAll", mock.Anything).Return(1, nil)
	ledger.On("ClearAll", mock.Anything).Return(0, errors.New("boom"))

	jwtService := jwt.New("admin-test-secret", time.Hour)
	r := gin.New()
	group := r.Group("/api/v1/admin", middleware.OptionalAuth(jwtService), middleware.AdminOnly())
	RegisterRoutes(group, NewHandler(NewService(cat, ledger, nil)))

	wipe := func(token string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		_ = json.NewEncoder(&buf).Encode(body)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/wipe", &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	sellerToken, err := jwtService.GenerateToken("anna", "seller")
	require.NoError(t, err)
	adminToken, err := jwtService.GenerateToken("root", "admin")
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, wipe(sellerToken, WipeRequest{Confirm: "WIPE"}).Code)
	assert.Equal(t, http.StatusBadRequest, wipe(adminToken, WipeRequest{Confirm: "wipe"}).Code)
	cat.AssertNotCalled(t, "ClearAll", mock.Anything)

	w := wipe(adminToken, WipeRequest{Confirm: "WIPE"})
	assert.Equal(t, http.StatusMultiStatus, w.Code)
	assert.Contains(t, w.Body.String(), "PARTIAL_FAILURE")
	assert.Contains(t, w.Body.String(), `"failed":"history"`)
}
