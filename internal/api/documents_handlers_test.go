package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docport-io/docport/internal/access"
	"github.com/docport-io/docport/internal/apperrors"
	"github.com/docport-io/docport/internal/auth"
	"github.com/docport-io/docport/internal/middleware"
	"github.com/docport-io/docport/internal/models"
	"github.com/docport-io/docport/internal/query"
	"github.com/docport-io/docport/internal/store/memory"
)

// fakeProfiles backs the verifier, the router and the profile endpoint
// in one place.
type fakeProfiles struct {
	profiles map[string]*models.Profile
	deleted  []string
}

func (f *fakeProfiles) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, apperrors.E(apperrors.KindNotFound, "profile_not_found")
	}
	return p, nil
}

func (f *fakeProfiles) FindClientProfile(ctx context.Context, scope string) (*models.Profile, error) {
	for _, p := range f.profiles {
		if p.ClientScopeID == scope {
			return p, nil
		}
	}
	return nil, apperrors.E(apperrors.KindNotFound, "profile_not_found")
}

func (f *fakeProfiles) CountActiveAdmins(ctx context.Context) (int, error) {
	count := 0
	for _, p := range f.profiles {
		if p.Role == models.RoleAdmin && p.Active {
			count++
		}
	}
	return count, nil
}

func (f *fakeProfiles) TouchLastAccess(ctx context.Context, id string) error {
	return nil
}

func (f *fakeProfiles) Delete(ctx context.Context, id string) error {
	if _, ok := f.profiles[id]; !ok {
		return apperrors.E(apperrors.KindNotFound, "profile_not_found")
	}
	delete(f.profiles, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type rig struct {
	engine   *gin.Engine
	store    *memory.Store
	profiles *fakeProfiles
	jwt      *auth.JWTManager
}

func newRig(t *testing.T) *rig {
	t.Helper()
	gin.SetMode(gin.TestMode)

	profiles := &fakeProfiles{profiles: map[string]*models.Profile{
		"p-admin":  {ID: "p-admin", Login: "root", Role: models.RoleAdmin, Active: true},
		"p-admin2": {ID: "p-admin2", Login: "root2", Role: models.RoleAdmin, Active: true},
		"p-tech":   {ID: "p-tech", Login: "tech", Role: models.RoleTechnician, Active: true},
		"p-client": {
			ID: "p-client", Login: "client1", Role: models.RoleClient,
			ClientScopeID: "cl-1", Active: true,
			SeeReceipts: true, SeeWorkOrders: true,
		},
		"p-client2": {
			ID: "p-client2", Login: "client2", Role: models.RoleClient,
			ClientScopeID: "cl-2", Active: true,
			SeeReceipts: true,
		},
		"p-frozen": {ID: "p-frozen", Login: "frozen", Role: models.RoleClient, ClientScopeID: "cl-3", Active: false},
	}}

	docStore := memory.NewStore()
	jwtManager := auth.NewJWTManager("test-secret", "docport", time.Hour)
	verifier := auth.NewVerifier(jwtManager, profiles)
	router := access.NewRouter(auth.NewRBAC(), profiles)
	executor := query.NewExecutor(docStore)

	engine := gin.New()
	RegisterRoutes(engine,
		middleware.NewAuthMiddleware(verifier),
		NewDocumentHandlers(router, executor, docStore, false),
		NewProfileHandlers(router, profiles, false),
		docStore, "/metrics")

	return &rig{engine: engine, store: docStore, profiles: profiles, jwt: jwtManager}
}

func (r *rig) do(t *testing.T, profileID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if profileID != "" {
		token, err := r.jwt.GenerateToken(profileID, profileID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.engine.ServeHTTP(w, req)
	return w
}

func (r *rig) seedReceipts(t *testing.T) {
	t.Helper()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	for i, d := range []models.Document{
		{ID: "rc-1", ClientID: "cl-1", Status: "pending"},
		{ID: "rc-2", ClientID: "cl-1", Status: "paid"},
		{ID: "rc-3", ClientID: "cl-2", Status: "pending"},
	} {
		d.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		d.CreatedBy = "p-admin"
		require.NoError(t, r.store.Insert(context.Background(), "receipts", &d))
	}
}

func listIDs(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var resp models.DocumentListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	ids := make([]string, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		ids = append(ids, d.ID)
	}
	return ids
}

func TestClientListIsOwnerScoped(t *testing.T) {
	r := newRig(t)
	r.seedReceipts(t)

	// A foreign client_id filter is ignored, not honored.
	w := r.do(t, "p-client", http.MethodGet, "/api/v1/documents/receipt?client_id=cl-2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	ids := listIDs(t, w)
	assert.ElementsMatch(t, []string{"rc-1", "rc-2"}, ids)
}

func TestClientListScopeHoldsUnderFallback(t *testing.T) {
	r := newRig(t)
	r.seedReceipts(t)

	indexed := r.do(t, "p-client", http.MethodGet, "/api/v1/documents/receipt", nil)
	require.Equal(t, http.StatusOK, indexed.Code)

	r.store.FailPlannedQueries = true
	fallback := r.do(t, "p-client", http.MethodGet, "/api/v1/documents/receipt", nil)
	require.Equal(t, http.StatusOK, fallback.Code)

	// Same members, same order, same truncation point.
	assert.Equal(t, indexed.Body.String(), fallback.Body.String())
	for _, id := range listIDs(t, fallback) {
		assert.NotEqual(t, "rc-3", id)
	}
}

func TestClientWithoutFlagForbidden(t *testing.T) {
	r := newRig(t)
	r.seedReceipts(t)

	w := r.do(t, "p-client", http.MethodGet, "/api/v1/documents/quote", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "category_not_enabled")

	// Filters change nothing.
	w = r.do(t, "p-client", http.MethodGet, "/api/v1/documents/quote?status=sent&client_id=cl-1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestClientGetForeignDocumentIs404(t *testing.T) {
	r := newRig(t)
	r.seedReceipts(t)

	w := r.do(t, "p-client", http.MethodGet, "/api/v1/documents/receipt/rc-3", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = r.do(t, "p-client", http.MethodGet, "/api/v1/documents/receipt/rc-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownTypeFailsClosed(t *testing.T) {
	r := newRig(t)

	w := r.do(t, "p-admin", http.MethodGet, "/api/v1/documents/invoice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown_document_type")
}

func TestTechnicianCategoryWideVisibility(t *testing.T) {
	r := newRig(t)

	// Admin creates a work order assigned to nobody.
	w := r.do(t, "p-admin", http.MethodPost, "/api/v1/documents/work_order", map[string]any{
		"client_id": "cl-1",
		"notes":     "inspect boiler",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// The technician sees it even though it is not assigned to them.
	w = r.do(t, "p-tech", http.MethodGet, "/api/v1/documents/work_order", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, listIDs(t, w), 1)

	// But stays out of the financial categories.
	w = r.do(t, "p-tech", http.MethodGet, "/api/v1/documents/receipt", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateRoundTripAuditFields(t *testing.T) {
	r := newRig(t)

	w := r.do(t, "p-admin", http.MethodPost, "/api/v1/documents/work_order", map[string]any{
		"client_id": "cl-1",
		"notes":     "first visit",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "cl-1", created.ClientID)
	assert.Equal(t, "p-admin", created.CreatedBy)
	assert.Equal(t, models.StatusPending, created.Status)

	// The owning client reads it back with owner and audit intact.
	w = r.do(t, "p-client", http.MethodGet, "/api/v1/documents/work_order/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var read models.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &read))
	assert.Equal(t, "cl-1", read.ClientID)
	assert.Equal(t, "p-admin", read.CreatedBy)
}

func TestCreateRejectsInvalidOwner(t *testing.T) {
	r := newRig(t)

	// Unknown owner reference.
	w := r.do(t, "p-admin", http.MethodPost, "/api/v1/documents/work_order", map[string]any{
		"client_id": "cl-ghost",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_owner_reference")
}

func TestClientCannotMutate(t *testing.T) {
	r := newRig(t)
	r.seedReceipts(t)

	w := r.do(t, "p-client", http.MethodPost, "/api/v1/documents/receipt", map[string]any{"amount": 10})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = r.do(t, "p-client", http.MethodPut, "/api/v1/documents/receipt/rc-1", map[string]any{"status": "paid"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = r.do(t, "p-client", http.MethodDelete, "/api/v1/documents/receipt/rc-1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTechnicianUpdateDropsRestrictedFields(t *testing.T) {
	r := newRig(t)

	doc := &models.Document{
		ID: "wo-1", ClientID: "cl-1", Status: "pending",
		CreatedAt: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
		CreatedBy: "p-admin",
		Fields:    map[string]any{"total_amount": 500.0},
	}
	require.NoError(t, r.store.Insert(context.Background(), "work_orders", doc))

	w := r.do(t, "p-tech", http.MethodPut, "/api/v1/documents/work_order/wo-1", map[string]any{
		"status":       "done",
		"total_amount": 1.0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// The allowed field changed, the restricted one was dropped silently.
	stored, err := r.store.Get(context.Background(), "work_orders", "wo-1")
	require.NoError(t, err)
	assert.Equal(t, "done", stored.Status)
	assert.Equal(t, 500.0, stored.Fields["total_amount"])
	assert.Equal(t, "p-tech", stored.ModifiedBy)
	assert.Equal(t, "p-admin", stored.CreatedBy)
}

func TestDateRangeFilterAppliedInProcess(t *testing.T) {
	r := newRig(t)
	r.seedReceipts(t) // created 08:00, 09:00 (cl-1) and 10:00 (cl-2)

	w := r.do(t, "p-admin", http.MethodGet,
		"/api/v1/documents/receipt?date_from=2026-04-01T08%3A30%3A00Z", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"rc-2", "rc-3"}, listIDs(t, w))

	w = r.do(t, "p-admin", http.MethodGet, "/api/v1/documents/receipt?date_from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "malformed_date_filter")
}

func TestCountMatchesListSemantics(t *testing.T) {
	r := newRig(t)
	r.seedReceipts(t)

	w := r.do(t, "p-client", http.MethodGet, "/api/v1/documents/receipt/count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count": 2}`, w.Body.String())

	// Same count through the fallback path.
	r.store.FailPlannedQueries = true
	w = r.do(t, "p-client", http.MethodGet, "/api/v1/documents/receipt/count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count": 2}`, w.Body.String())

	// Date-bounded counts materialize in-process.
	w = r.do(t, "p-admin", http.MethodGet,
		"/api/v1/documents/receipt/count?date_from=2026-04-01T08%3A30%3A00Z", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count": 2}`, w.Body.String())
}

func TestStoreOutageIsUnavailable(t *testing.T) {
	r := newRig(t)
	r.seedReceipts(t)
	r.store.Unavailable = true

	w := r.do(t, "p-admin", http.MethodGet, "/api/v1/documents/receipt", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestInactiveAccountRejected(t *testing.T) {
	r := newRig(t)

	w := r.do(t, "p-frozen", http.MethodGet, "/api/v1/documents/receipt", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "account_inactive")
}

func TestMissingCredential(t *testing.T) {
	r := newRig(t)

	w := r.do(t, "", http.MethodGet, "/api/v1/documents/receipt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScopedResultCap(t *testing.T) {
	r := newRig(t)
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		d := models.Document{
			ID:        fmt.Sprintf("rc-bulk-%02d", i),
			ClientID:  "cl-1",
			Status:    "pending",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, r.store.Insert(context.Background(), "receipts", &d))
	}

	w := r.do(t, "p-client", http.MethodGet, "/api/v1/documents/receipt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ids := listIDs(t, w)
	assert.Len(t, ids, 50)
	// Newest first.
	assert.Equal(t, "rc-bulk-59", ids[0])
}
