package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/otcheredev/hms-web/internal/cache"
	"github.com/otcheredev/hms-web/internal/config"
	"github.com/otcheredev/hms-web/internal/gateway"
	"github.com/otcheredev/hms-web/internal/models"
	"github.com/otcheredev/hms-web/internal/services"
	"github.com/otcheredev/hms-web/internal/session"
	"github.com/otcheredev/hms-web/internal/web"
)

const testSessionID = "sid-1"

type testEnv struct {
	t       *testing.T
	handler http.Handler
	store   session.Store
	ctrl    *session.Controller
	cookie  session.Cookie

	mu    sync.Mutex
	calls []string
}

// newTestEnv starts a fake backend serving routes (Go 1.22 mux patterns)
// and builds the full router against it
func newTestEnv(t *testing.T, routes map[string]http.HandlerFunc) *testEnv {
	t.Helper()
	env := &testEnv{t: t, cookie: session.Cookie{Name: "hms_session", TTL: time.Hour}}

	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		env.calls = append(env.calls, r.Method+" "+r.URL.Path)
		env.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(backend.Close)

	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })
	env.store = session.NewCacheStore(c)

	var ctrl *session.Controller
	clients, err := gateway.NewClientSet(config.BackendsConfig{
		GatewayURL: backend.URL,
		Timeout:    5 * time.Second,
	}, session.TokenFromContext, func(ctx context.Context) { ctrl.Expire(ctx) })
	if err != nil {
		t.Fatalf("NewClientSet failed: %v", err)
	}
	ctrl = session.NewController(env.store, clients.Auth, time.Hour)
	env.ctrl = ctrl
	t.Cleanup(ctrl.Wait)

	views, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	env.handler = NewRouter(RouterConfig{
		Views:             views,
		Cookie:            env.cookie,
		Store:             env.store,
		Sessions:          ctrl,
		Clients:           clients,
		Audit:             services.NewAuditRecorder(nil),
		LowStockThreshold: 10,
	})
	return env
}

func (e *testEnv) login(role models.Role, cid string) {
	e.t.Helper()
	s := &models.Session{
		Username: "user",
		FullName: "Test User",
		Role:     role,
		CID:      cid,
		Token:    "token-" + role.String(),
		Theme:    models.ThemeDark,
	}
	if err := e.store.Save(context.Background(), testSessionID, s, time.Hour); err != nil {
		e.t.Fatalf("Save failed: %v", err)
	}
}

func (e *testEnv) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	e.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.AddCookie(&http.Cookie{Name: e.cookie.Name, Value: testSessionID})
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) writes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, c := range e.calls {
		if !strings.HasPrefix(c, "GET ") {
			out = append(out, c)
		}
	}
	return out
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, to string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != to {
		t.Fatalf("expected redirect to %s, got %s", to, got)
	}
}

func TestStaffCannotOpenHospitals(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(models.RoleStaff, "C1")

	expectRedirect(t, env.do(http.MethodGet, "/hospitals", nil), "/dashboard")
}

func TestAnonymousGoesToLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	expectRedirect(t, env.do(http.MethodGet, "/patients", nil), "/login")
}

func TestUnknownPathGoesToDashboard(t *testing.T) {
	env := newTestEnv(t, nil)
	expectRedirect(t, env.do(http.MethodGet, "/no/such/screen", nil), "/dashboard")
}

func TestLogoutThenProtectedRoute(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(models.RoleAdmin, "C1")

	expectRedirect(t, env.do(http.MethodPost, "/logout", url.Values{}), "/login")
	expectRedirect(t, env.do(http.MethodGet, "/appointments", nil), "/login")
}

func TestMedicineQuantityStockStyle(t *testing.T) {
	env := newTestEnv(t, map[string]http.HandlerFunc{
		"GET /api/medicines": jsonHandler(`{"success":true,"data":[
			{"id":1,"cid":"C1","medicineName":"Paracetamol","quantity":5,"supplier":"Acme"},
			{"id":2,"cid":"C1","medicineName":"Ibuprofen","quantity":120,"supplier":"Acme"}]}`),
	})
	env.login(models.RoleStaff, "C1")

	rec := env.do(http.MethodGet, "/medicines", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `class="stock-low">5<`) {
		t.Errorf("expected low stock styling for quantity 5")
	}
	if !strings.Contains(body, `class="stock-ok">120<`) {
		t.Errorf("expected ok styling for quantity 120")
	}
}

func TestBackendRejectionTearsDownSession(t *testing.T) {
	paths := []string{"/doctors", "/users", "/appointments", "/dashboard"}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			unauthorized := func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"message":"expired"}`))
			}
			env := newTestEnv(t, map[string]http.HandlerFunc{
				"/api/": unauthorized,
			})
			env.login(models.RoleAdmin, "C1")

			rec := env.do(http.MethodGet, p, nil)
			expectRedirect(t, rec, "/login")

			if !strings.Contains(rec.Header().Get("Set-Cookie"), "Max-Age=0") {
				t.Errorf("expected session cookie to be cleared, got %q", rec.Header().Get("Set-Cookie"))
			}
			if _, err := env.store.Load(context.Background(), testSessionID); !errors.Is(err, session.ErrNoSession) {
				t.Errorf("expected stored session to be cleared, got %v", err)
			}
			expectRedirect(t, env.do(http.MethodGet, "/dashboard", nil), "/login")
		})
	}
}

func TestPartialLoadShowsNotice(t *testing.T) {
	env := newTestEnv(t, map[string]http.HandlerFunc{
		"GET /api/appointments": jsonHandler(`{"success":true,"data":[{"id":1,"cid":"C1","patientName":"Ama","doctorName":"Dr. Kofi","status":"BOOKED"}]}`),
		"GET /api/doctors": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"GET /api/patients":  jsonHandler(`{"success":true,"data":[]}`),
		"GET /api/medicines": jsonHandler(`{"success":true,"data":[]}`),
	})
	env.login(models.RoleAdmin, "C1")

	rec := env.do(http.MethodGet, "/appointments", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Ama") {
		t.Errorf("appointments should render despite the doctors failure")
	}
	if !strings.Contains(body, "Some data could not be loaded: doctors.") {
		t.Errorf("expected notice naming the failed list")
	}
}

func TestAddMedicineDoesNotWrite(t *testing.T) {
	env := newTestEnv(t, map[string]http.HandlerFunc{
		"GET /api/appointments": jsonHandler(`{"success":true,"data":[]}`),
		"GET /api/doctors":      jsonHandler(`{"success":true,"data":[{"id":3,"cid":"C1","name":"Dr. Kofi"}]}`),
		"GET /api/patients":     jsonHandler(`{"success":true,"data":[{"id":4,"cid":"C1","name":"Ama"}]}`),
		"GET /api/medicines": jsonHandler(`{"success":true,"data":[
			{"id":1,"cid":"C1","medicineName":"Paracetamol","quantity":5},
			{"id":2,"cid":"C1","medicineName":"Ibuprofen","quantity":40}]}`),
	})
	env.login(models.RoleStaff, "C1")

	form := url.Values{
		"op":         {"add-medicine"},
		"doctorId":   {"3"},
		"patientId":  {"4"},
		"diagnosis":  {"Flu"},
		"med_name":   {"Paracetamol"},
		"med_qty":    {"abc"},
		"med_dosage": {"2x daily"},
	}
	rec := env.do(http.MethodPost, "/appointments", form)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected form to be re-rendered, got %d", rec.Code)
	}
	body := rec.Body.String()
	if got := strings.Count(body, `name="med_name"`); got != 2 {
		t.Errorf("expected 2 medicine rows, got %d", got)
	}
	if !strings.Contains(body, `name="med_qty" value="0"`) {
		t.Errorf("non-numeric quantity should be coerced to 0")
	}
	if !strings.Contains(body, `name="med_qty" value="1"`) {
		t.Errorf("new row should default to quantity 1")
	}
	if !strings.Contains(body, `<option value="Paracetamol" selected>Paracetamol (5 left)</option>`) {
		t.Errorf("expected the prescribed medicine selected from inventory with its stock")
	}
	if !strings.Contains(body, `<option value="Ibuprofen">Ibuprofen (40 left)</option>`) {
		t.Errorf("expected inventory choices with remaining quantity")
	}
	if strings.Contains(body, `type="text" name="med_name"`) {
		t.Errorf("medicine names must be chosen from inventory")
	}
	if w := env.writes(); len(w) != 0 {
		t.Errorf("add-medicine must not write to the backend, got %v", w)
	}
}

func TestSaveAppointmentResolvesNames(t *testing.T) {
	var posted string
	env := newTestEnv(t, map[string]http.HandlerFunc{
		"GET /api/doctors":  jsonHandler(`{"success":true,"data":[{"id":3,"cid":"C1","name":"Dr. Kofi"}]}`),
		"GET /api/patients": jsonHandler(`{"success":true,"data":[{"id":4,"cid":"C1","name":"Ama"}]}`),
		"POST /api/appointments": func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			posted = string(body)
			w.Write([]byte(`{"success":true}`))
		},
	})
	env.login(models.RoleAdmin, "C1")

	form := url.Values{
		"op":        {"save"},
		"doctorId":  {"3"},
		"patientId": {"4"},
		"dateTime":  {"2024-05-01T09:30"},
		"cid":       {"C9"},
	}
	expectRedirect(t, env.do(http.MethodPost, "/appointments", form), "/appointments")

	for _, want := range []string{`"doctorName":"Dr. Kofi"`, `"patientName":"Ama"`, `"cid":"C1"`, `"status":"BOOKED"`} {
		if !strings.Contains(posted, want) {
			t.Errorf("expected %s in request body %s", want, posted)
		}
	}
}

func TestStatusChangeRejectedForStaff(t *testing.T) {
	env := newTestEnv(t, map[string]http.HandlerFunc{
		"GET /api/appointments/7": jsonHandler(`{"success":true,"data":{"id":7,"cid":"C1","status":"BOOKED"}}`),
		"GET /api/appointments":   jsonHandler(`{"success":true,"data":[]}`),
	})
	env.login(models.RoleStaff, "C1")

	rec := env.do(http.MethodPost, "/appointments/7/status", url.Values{"status": {"COMPLETED"}})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if w := env.writes(); len(w) != 0 {
		t.Errorf("no status update should be sent, got %v", w)
	}
}

func TestDoctorCompletesAppointment(t *testing.T) {
	env := newTestEnv(t, map[string]http.HandlerFunc{
		"GET /api/appointments/7":        jsonHandler(`{"success":true,"data":{"id":7,"cid":"C1","status":"BOOKED"}}`),
		"PUT /api/appointments/7/status": jsonHandler(`{"success":true}`),
	})
	env.login(models.RoleDoctor, "C1")

	rec := env.do(http.MethodPost, "/appointments/7/status", url.Values{"status": {"COMPLETED"}, "return": {"/dashboard"}})
	expectRedirect(t, rec, "/dashboard")
}

func TestCreateValidationMessageShown(t *testing.T) {
	env := newTestEnv(t, map[string]http.HandlerFunc{
		"GET /api/doctors": jsonHandler(`{"success":true,"data":[]}`),
		"POST /api/doctors": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"success":false,"message":"Doctor name already exists"}`))
		},
	})
	env.login(models.RoleAdmin, "C1")

	rec := env.do(http.MethodPost, "/doctors", url.Values{"name": {"Dr. Kofi"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Doctor name already exists") {
		t.Errorf("expected backend message verbatim")
	}
	if !strings.Contains(body, `value="Dr. Kofi"`) {
		t.Errorf("expected entered values to be kept")
	}
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t, map[string]http.HandlerFunc{
		"POST /api/auth/login": func(w http.ResponseWriter, r *http.Request) {
			var creds struct{ Password string }
			if err := json.NewDecoder(r.Body).Decode(&creds); err == nil && creds.Password == "right" {
				w.Write([]byte(`{"success":true,"data":{"token":"t","username":"alice","role":"ADMIN","cid":"C1","fullName":"Alice"}}`))
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"message":"Invalid username or password"}`))
		},
	})

	rec := env.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Invalid username or password") {
		t.Fatalf("expected login form with the backend's message, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Login failed. Please try again.") {
		t.Errorf("fallback message should not replace the backend's message")
	}

	rec = env.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"right"}})
	expectRedirect(t, rec, "/dashboard")
	if !strings.Contains(rec.Header().Get("Set-Cookie"), "hms_session=") {
		t.Errorf("expected session cookie")
	}
}

func TestLoadingWhenStoreUnavailable(t *testing.T) {
	env := newTestEnv(t, nil)
	views, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	env.handler = NewRouter(RouterConfig{
		Views:  views,
		Cookie: env.cookie,
		Store:  unavailableStore{},
		Audit:  services.NewAuditRecorder(nil),
	})

	rec := env.do(http.MethodGet, "/dashboard", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if rec.Header().Get("Location") != "" {
		t.Errorf("loading must not redirect")
	}
	if !strings.Contains(rec.Body.String(), "Loading") {
		t.Errorf("expected loading placeholder")
	}
}

func TestSessionAPIOmitsToken(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(models.RoleDoctor, "C1")

	rec := env.do(http.MethodGet, "/api/session", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "token-") {
		t.Errorf("token must not be exposed: %s", body)
	}
	if !strings.Contains(body, `"role":"DOCTOR"`) {
		t.Errorf("expected role in response: %s", body)
	}
}

func TestThemeChangeAppliesImmediately(t *testing.T) {
	env := newTestEnv(t, map[string]http.HandlerFunc{
		"PUT /api/auth/theme": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	})
	env.login(models.RoleAdmin, "C1")

	expectRedirect(t, env.do(http.MethodPost, "/theme", url.Values{"theme": {"light"}, "return": {"/doctors"}}), "/doctors")
	env.ctrl.Wait()

	s, err := env.store.Load(context.Background(), testSessionID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Theme != models.ThemeLight {
		t.Errorf("expected light theme to stick after backend failure, got %s", s.Theme)
	}
}

type unavailableStore struct{}

func (unavailableStore) Load(context.Context, string) (*models.Session, error) {
	return nil, errors.New("dial tcp: connection refused")
}
func (unavailableStore) Save(context.Context, string, *models.Session, time.Duration) error {
	return nil
}
func (unavailableStore) Clear(context.Context, string) error { return nil }

func TestAdminCannotCreateSuperAdmin(t *testing.T) {
	env := newTestEnv(t, map[string]http.HandlerFunc{
		"GET /api/auth/users": jsonHandler(`{"success":true,"data":[]}`),
	})
	env.login(models.RoleAdmin, "C1")

	form := url.Values{
		"username": {"root"},
		"password": {"secret"},
		"fullName": {"Root"},
		"role":     {"SUPER_ADMIN"},
		"cid":      {"SYSTEM"},
	}
	rec := env.do(http.MethodPost, "/users", form)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "You cannot create users with that role.") {
		t.Errorf("expected role rejection message")
	}
	if w := env.writes(); len(w) != 0 {
		t.Errorf("no registration should be sent, got %v", w)
	}
}

func TestOnlySuperAdminCreatesHospitals(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(models.RoleAdmin, "C1")

	expectRedirect(t, env.do(http.MethodPost, "/hospitals", url.Values{"cid": {"C2"}, "name": {"Other"}}), "/hospitals")
	if w := env.writes(); len(w) != 0 {
		t.Errorf("ADMIN must not create hospitals, got %v", w)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t, map[string]http.HandlerFunc{
		"GET /api/patients/3":    jsonHandler(`{"success":true,"data":{"id":3,"cid":"C1","name":"Ama"}}`),
		"GET /api/patients":      jsonHandler(`{"success":true,"data":[]}`),
		"DELETE /api/patients/3": jsonHandler(`{"success":true}`),
	})
	env.login(models.RoleStaff, "C1")

	rec := env.do(http.MethodGet, "/patients/3/delete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected confirmation page, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Ama") || !strings.Contains(body, `action="/patients/3/delete"`) {
		t.Errorf("confirmation should name the record and post to the delete action")
	}
	if w := env.writes(); len(w) != 0 {
		t.Fatalf("confirmation must not delete anything, got %v", w)
	}

	expectRedirect(t, env.do(http.MethodPost, "/patients/3/delete", url.Values{}), "/patients")
	w := env.writes()
	if len(w) != 1 || w[0] != "DELETE /api/patients/3" {
		t.Errorf("expected a single delete after confirming, got %v", w)
	}
}

func TestEditPrefillsDefaults(t *testing.T) {
	env := newTestEnv(t, map[string]http.HandlerFunc{
		"GET /api/patients/3": jsonHandler(`{"success":true,"data":{"id":3,"cid":"C1","name":"Ama","age":null,"gender":null,"hospitalId":null}}`),
		"GET /api/patients":   jsonHandler(`{"success":true,"data":[]}`),
	})
	env.login(models.RoleAdmin, "C1")

	rec := env.do(http.MethodGet, "/patients?edit=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`name="name" value="Ama"`,
		`name="gender" value=""`,
		`name="contact" value=""`,
		`name="hospitalId" value=""`,
		`action="/patients/3"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in edit form", want)
		}
	}
	for _, bad := range []string{"undefined", "&lt;nil&gt;", "<no value>"} {
		if strings.Contains(body, bad) {
			t.Errorf("edit form should not render %q", bad)
		}
	}
}

func TestInventoryOptionsKeepMissingMedicine(t *testing.T) {
	inventory := []models.Medicine{{MedicineName: "Paracetamol", Quantity: 12}}

	opts := inventoryOptions(inventory, "Amoxicillin")
	if len(opts) != 2 {
		t.Fatalf("expected inventory plus the prescribed name, got %v", opts)
	}
	if opts[0].Label != "Paracetamol (12 left)" || opts[0].Selected {
		t.Errorf("unexpected inventory option %+v", opts[0])
	}
	if opts[1].Value != "Amoxicillin" || !opts[1].Selected {
		t.Errorf("prescribed medicine should stay selected, got %+v", opts[1])
	}

	if opts := inventoryOptions(inventory, ""); len(opts) != 1 || opts[0].Selected {
		t.Errorf("a new row should select nothing, got %v", opts)
	}
}
