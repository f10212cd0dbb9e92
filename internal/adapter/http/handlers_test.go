package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapthttp "nutriportal/internal/adapter/http"
	"nutriportal/internal/adapter/memory"
	"nutriportal/internal/app"
	"nutriportal/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock document store (function-fields pattern)
// ---------------------------------------------------------------------------

type mockDocs struct {
	getFn    func(ctx context.Context, userID string) (*domain.UserDocument, error)
	updateFn func(ctx context.Context, userID string, upd domain.HistoryUpdate) error
}

func (m *mockDocs) GetDocument(ctx context.Context, userID string) (*domain.UserDocument, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return &domain.UserDocument{UserID: userID}, nil
}

func (m *mockDocs) CreateDocument(ctx context.Context, doc *domain.UserDocument) error {
	return nil
}

func (m *mockDocs) UpdateHistory(ctx context.Context, userID string, upd domain.HistoryUpdate) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, upd)
	}
	return nil
}

func (m *mockDocs) UpdateMenu(ctx context.Context, userID string, menu domain.WeeklyMenu, updatedAt time.Time) error {
	return nil
}

// ---------------------------------------------------------------------------
// Test-server helpers
// ---------------------------------------------------------------------------

type testEnv struct {
	db   *memory.DB
	auth *app.AuthService
	srv  *adapthttp.Server
}

func newEnv(t *testing.T, docs domain.DocumentStore) *testEnv {
	t.Helper()

	db := memory.New()
	if docs == nil {
		docs = db
	}
	log, _ := logtest.NewNullLogger()

	authSvc := app.NewAuthService(db, db.NewSessionRepo())
	srv := adapthttp.New(
		app.NewMeasurementService(docs, app.WithLogger(log)),
		app.NewGroceryService(docs),
		app.NewReminderService(db.NewCache(), time.Hour),
		authSvc,
	).WithLogger(log)
	return &testEnv{db: db, auth: authSvc, srv: srv}
}

func newTestServer(t *testing.T, docs domain.DocumentStore) (*httptest.Server, *memory.DB) {
	t.Helper()
	env := newEnv(t, docs)
	ts := httptest.NewServer(env.srv.WithoutAuth().Handler())
	t.Cleanup(ts.Close)
	return ts, env.db
}

func seedUser(t *testing.T, db *memory.DB, userID string) {
	t.Helper()
	require.NoError(t, db.CreateDocument(context.Background(), &domain.UserDocument{UserID: userID}))
}

func doJSON(t *testing.T, client *http.Client, method, url string, payload any) *http.Response {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := doJSON(t, nil, http.MethodGet, ts.URL+"/api/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, true, decodeBody(t, resp)["ok"])
}

func TestHealthEndpoint_FailingCheck(t *testing.T) {
	env := newEnv(t, nil)
	env.srv.WithHealthCheck("store", func(context.Context) error { return errors.New("down") })
	ts := httptest.NewServer(env.srv.WithoutAuth().Handler())
	defer ts.Close()

	resp := doJSON(t, nil, http.MethodGet, ts.URL+"/api/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, map[string]any{"store": "down"}, body["failed"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	doJSON(t, nil, http.MethodGet, ts.URL+"/api/health", nil)

	resp := doJSON(t, nil, http.MethodGet, ts.URL+"/metrics", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), "nutriportal_http_request_duration_seconds")
}

func TestMeasurementLifecycle(t *testing.T) {
	ts, db := newTestServer(t, nil)
	seedUser(t, db, "u1")
	base := ts.URL + "/api/users/u1/measurements"

	resp := doJSON(t, nil, http.MethodPost, base, map[string]any{
		"date": "2024-05-01", "weight": "70,5", "bodyFatPct": "20",
		"createdAt": "2024-05-01T08:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	entry := decodeBody(t, resp)["entry"].(map[string]any)
	assert.Equal(t, 70.5, entry["weight"])
	assert.Equal(t, 14.1, entry["bodyFatKg"])
	assert.Equal(t, "2024-05-01T08:00:00Z", entry["createdAt"])

	resp = doJSON(t, nil, http.MethodPost, base, map[string]any{
		"date": "2024-05-08", "weight": 69.8, "createdAt": 1715155200000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, nil, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decodeBody(t, resp)["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "2024-05-08", items[0].(map[string]any)["date"], "newest first")

	resp = doJSON(t, nil, http.MethodPut, base+"/1", map[string]any{"date": "2024-05-01", "weight": "70.1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody(t, resp)["result"].(map[string]any)
	assert.Equal(t, true, result["updatedRich"])
	assert.Equal(t, true, result["updatedShort"])

	resp = doJSON(t, nil, http.MethodDelete, base+"/0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := db.GetDocument(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, doc.MeasurementHistory, 1)
	require.Len(t, doc.WeightHistory, 1)
	assert.Equal(t, 70.1, *doc.MeasurementHistory[0].Weight)
	assert.Equal(t, 70.1, *doc.WeightHistory[0].Weight)
	assert.Nil(t, doc.MeasurementHistory[0].BodyFatKg, "an edit replaces the whole record")
	assert.Equal(t, "2024-05-01T08:00:00Z", doc.MeasurementHistory[0].CreatedAt.Format(time.RFC3339))
}

func TestAppendMeasurement_Validation(t *testing.T) {
	tests := []struct {
		name       string
		payload    map[string]any
		wantStatus int
	}{
		{"valid kg", map[string]any{"date": "2024-05-01", "weight": 80}, http.StatusCreated},
		{"valid lb", map[string]any{"date": "2024-05-01", "weight": "154.32", "unit": "lb"}, http.StatusCreated},
		{"weight zero", map[string]any{"weight": 0}, http.StatusBadRequest},
		{"weight too large", map[string]any{"weight": 501}, http.StatusBadRequest},
		{"body fat over 100", map[string]any{"weight": 70, "bodyFatPct": 120}, http.StatusBadRequest},
		{"nothing to store", map[string]any{"notes": "hola"}, http.StatusBadRequest},
		{"unparsable weight is dropped", map[string]any{"weight": "abc"}, http.StatusBadRequest},
		{"unknown unit", map[string]any{"weight": 11, "unit": "stone"}, http.StatusBadRequest},
		{"unknown field", map[string]any{"weight": 70, "height": 170}, http.StatusBadRequest},
	}

	ts, db := newTestServer(t, nil)
	seedUser(t, db, "u1")

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, nil, http.MethodPost, ts.URL+"/api/users/u1/measurements", tc.payload)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}

	doc, err := db.GetDocument(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, doc.MeasurementHistory, 2)
	assert.Equal(t, 70.0, *doc.MeasurementHistory[1].Weight)
}

func TestMeasurementErrorsMapToStatus(t *testing.T) {
	ts, db := newTestServer(t, nil)
	seedUser(t, db, "u1")

	resp := doJSON(t, nil, http.MethodGet, ts.URL+"/api/users/ghost/measurements", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, nil, http.MethodDelete, ts.URL+"/api/users/u1/measurements/3", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, nil, http.MethodPut, ts.URL+"/api/users/u1/measurements/0", map[string]any{"weight": 70})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, nil, http.MethodDelete, ts.URL+"/api/users/u1/measurements/99999999999999999999999", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, nil, http.MethodDelete, ts.URL+"/api/users/u1/measurements/abc", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMeasurementPersistenceFailure(t *testing.T) {
	ts, _ := newTestServer(t, &mockDocs{
		updateFn: func(context.Context, string, domain.HistoryUpdate) error {
			return errors.New("connection reset")
		},
	})

	resp := doJSON(t, nil, http.MethodPost, ts.URL+"/api/users/u1/measurements", map[string]any{"weight": 70})

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "could not save changes", decodeBody(t, resp)["error"])
}

func TestGroceryEndpoints(t *testing.T) {
	ts, db := newTestServer(t, nil)
	seedUser(t, db, "u1")

	resp := doJSON(t, nil, http.MethodGet, ts.URL+"/api/users/u1/grocery-list", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, decodeBody(t, resp)["sections"])

	menu := map[string]any{"weeklyMenu": map[string]any{
		"lunch": []string{"Pollo a la plancha", "Arroz"},
		"snack": []string{"Manzana"},
	}}

	resp = doJSON(t, nil, http.MethodPost, ts.URL+"/api/grocery-list", menu)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	preview := decodeBody(t, resp)
	assert.Equal(t, float64(3), preview["count"])

	resp = doJSON(t, nil, http.MethodPut, ts.URL+"/api/users/u1/menu", menu)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, nil, http.MethodGet, ts.URL+"/api/users/u1/grocery-list", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	sections := body["sections"].([]any)
	require.Len(t, sections, 3)
	first := sections[0].(map[string]any)
	assert.Equal(t, "meat", first["category"])
	assert.Equal(t, []any{"Pollo"}, first["items"])
	assert.Equal(t, preview["sections"], body["sections"])
}

func TestPutMenu_Invalid(t *testing.T) {
	ts, db := newTestServer(t, nil)
	seedUser(t, db, "u1")

	resp := doJSON(t, nil, http.MethodPut, ts.URL+"/api/users/u1/menu", map[string]any{
		"weeklyMenu": []map[string]string{{"lunch": "Arroz"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "a day array needs seven days")

	resp = doJSON(t, nil, http.MethodPut, ts.URL+"/api/users/u1/menu", map[string]any{"weeklyMenu": "arroz"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemindersAndDrafts(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	reminder := ts.URL + "/api/users/u1/reminders/weigh-in"
	draft := ts.URL + "/api/users/u1/drafts/note"

	resp := doJSON(t, nil, http.MethodGet, reminder, nil)
	assert.Equal(t, false, decodeBody(t, resp)["dismissed"])

	resp = doJSON(t, nil, http.MethodPost, reminder, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, nil, http.MethodGet, reminder, nil)
	assert.Equal(t, true, decodeBody(t, resp)["dismissed"])

	resp = doJSON(t, nil, http.MethodDelete, reminder, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, nil, http.MethodGet, reminder, nil)
	assert.Equal(t, false, decodeBody(t, resp)["dismissed"])

	resp = doJSON(t, nil, http.MethodPut, draft, map[string]any{"text": "Cenar antes"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, nil, http.MethodGet, draft, nil)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["found"])
	assert.Equal(t, "Cenar antes", body["text"])

	resp = doJSON(t, nil, http.MethodDelete, draft, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, nil, http.MethodGet, draft, nil)
	assert.Equal(t, false, decodeBody(t, resp)["found"])
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := doJSON(t, nil, http.MethodPatch, ts.URL+"/api/users/u1/measurements", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// ---------------------------------------------------------------------------
// Authentication and access
// ---------------------------------------------------------------------------

func newAuthServer(t *testing.T) (*httptest.Server, *testEnv) {
	t.Helper()
	env := newEnv(t, nil)
	ts := httptest.NewServer(env.srv.Handler())
	t.Cleanup(ts.Close)
	return ts, env
}

func loginClient(t *testing.T, baseURL, username, password string) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}
	resp := doJSON(t, client, http.MethodPost, baseURL+"/api/auth/login", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return client
}

func TestAuthRequired(t *testing.T) {
	ts, _ := newAuthServer(t)

	resp := doJSON(t, nil, http.MethodGet, ts.URL+"/api/users/u1/measurements", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, nil, http.MethodGet, ts.URL+"/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ts, env := newAuthServer(t)
	require.NoError(t, env.auth.CreateInitialCoach(context.Background(), "coach", "secret"))

	resp := doJSON(t, nil, http.MethodPost, ts.URL+"/api/auth/login", map[string]string{
		"username": "coach", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSetup_OnlyOnce(t *testing.T) {
	ts, _ := newAuthServer(t)
	creds := map[string]string{"username": "coach", "password": "secret"}

	resp := doJSON(t, nil, http.MethodPost, ts.URL+"/api/auth/setup", creds)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, nil, http.MethodPost, ts.URL+"/api/auth/setup", creds)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPatientAccess(t *testing.T) {
	ts, env := newAuthServer(t)
	ctx := context.Background()
	seedUser(t, env.db, "u1")
	seedUser(t, env.db, "u2")
	_, err := env.auth.CreateAccount(ctx, "ana", "pw", domain.RolePatient, "u1")
	require.NoError(t, err)

	client := loginClient(t, ts.URL, "ana", "pw")

	resp := doJSON(t, client, http.MethodGet, ts.URL+"/api/users/u1/measurements", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, client, http.MethodGet, ts.URL+"/api/users/u2/measurements", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/accounts", map[string]string{
		"username": "eve", "password": "pw", "role": "coach",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, client, http.MethodGet, ts.URL+"/api/users/u1/measurements", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCoachAccess(t *testing.T) {
	ts, env := newAuthServer(t)
	seedUser(t, env.db, "u2")
	require.NoError(t, env.auth.CreateInitialCoach(context.Background(), "coach", "secret"))

	client := loginClient(t, ts.URL, "coach", "secret")

	resp := doJSON(t, client, http.MethodGet, ts.URL+"/api/users/u2/measurements", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/accounts", map[string]string{
		"username": "ana", "password": "pw", "role": "patient", "userId": "u2",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "u2", decodeBody(t, resp)["userId"])

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/accounts", map[string]string{
		"username": "ana", "password": "pw", "role": "patient", "userId": "u2",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/accounts", map[string]string{
		"username": "bea", "password": "pw", "role": "patient",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestForwardAuthProvisionsPatient(t *testing.T) {
	ts, env := newAuthServer(t)
	seedUser(t, env.db, "alice")

	get := func(path string) int {
		req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("Remote-User", "alice")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close() //nolint:errcheck
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, get("/api/users/alice/measurements"))
	assert.Equal(t, http.StatusForbidden, get("/api/users/bob/measurements"))

	acct, err := env.db.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RolePatient, acct.Role)
}

func TestSSODisabled(t *testing.T) {
	ts, _ := newAuthServer(t)

	resp := doJSON(t, nil, http.MethodGet, ts.URL+"/api/auth/config", nil)
	assert.Equal(t, false, decodeBody(t, resp)["sso_enabled"])

	resp = doJSON(t, nil, http.MethodGet, ts.URL+"/api/auth/sso/login", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
