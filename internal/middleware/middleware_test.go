package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strconv"
	"testing"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/otcheredev/hms-web/internal/cache"
	"github.com/otcheredev/hms-web/internal/models"
	"github.com/otcheredev/hms-web/internal/session"
)

var testCookie = session.Cookie{Name: "hms_session", TTL: time.Hour}

type brokenStore struct{}

func (brokenStore) Load(context.Context, string) (*models.Session, error) {
	return nil, errors.New("redis: connection refused")
}
func (brokenStore) Save(context.Context, string, *models.Session, time.Duration) error { return nil }
func (brokenStore) Clear(context.Context, string) error                             { return nil }

func serveGated(t *testing.T, store session.Store, id string, required models.RoleSet) *httptest.ResponseRecorder {
	t.Helper()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("screen"))
	})
	loading := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})
	h := Sessions(store, testCookie)(Gate(required, loading)(ok))

	req := httptest.NewRequest(http.MethodGet, "/hospitals", nil)
	if id != "" {
		req.AddCookie(&http.Cookie{Name: testCookie.Name, Value: id})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func storeWith(t *testing.T, id string, s *models.Session) session.Store {
	t.Helper()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })
	store := session.NewCacheStore(c)
	if s != nil {
		if err := store.Save(context.Background(), id, s, time.Hour); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	return store
}

func TestGateRedirectsAnonymousToLogin(t *testing.T) {
	rec := serveGated(t, storeWith(t, "", nil), "", models.RolesOf(models.RoleAdmin))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestGateRedirectsForbiddenToDashboard(t *testing.T) {
	staff := &models.Session{Username: "s", Role: models.RoleStaff, CID: "C1", Token: "t"}
	rec := serveGated(t, storeWith(t, "sid", staff), "sid", models.RolesOf(models.RoleSuperAdmin, models.RoleAdmin))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestGateAdmitsAllowedRole(t *testing.T) {
	admin := &models.Session{Username: "a", Role: models.RoleAdmin, CID: "C1", Token: "t"}
	rec := serveGated(t, storeWith(t, "sid", admin), "sid", models.RolesOf(models.RoleSuperAdmin, models.RoleAdmin))
	if rec.Code != http.StatusOK || rec.Body.String() != "screen" {
		t.Fatalf("expected screen, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestGateShowsLoadingWhenStoreUnavailable(t *testing.T) {
	rec := serveGated(t, brokenStore{}, "sid", models.RolesOf(models.RoleAdmin))
	if rec.Code != http.StatusServiceUnavailable || rec.Body.String() != "loading" {
		t.Fatalf("expected loading placeholder, got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Location") != "" {
		t.Errorf("loading must not redirect")
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Errorf("expected Retry-After header")
	}
}

func TestTenantIDScopes(t *testing.T) {
	cases := []struct {
		name string
		sess *models.Session
		url  string
		want string
	}{
		{"admin ignores filter", &models.Session{Role: models.RoleAdmin, CID: "C1", Token: "t"}, "/doctors?cid=C2", "C1"},
		{"super admin filter", &models.Session{Role: models.RoleSuperAdmin, CID: "SYSTEM", Token: "t"}, "/doctors?cid=C2", "C2"},
		{"super admin all", &models.Session{Role: models.RoleSuperAdmin, CID: "SYSTEM", Token: "t"}, "/doctors", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			var ok bool
			h := TenantID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, ok = GetTenantID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			req = req.WithContext(session.WithSession(req.Context(), "sid", tc.sess))
			h.ServeHTTP(httptest.NewRecorder(), req)
			if !ok || got != tc.want {
				t.Errorf("expected tenant %q, got %q (ok=%v)", tc.want, got, ok)
			}
		})
	}
}

func TestRequireSession(t *testing.T) {
	h := Sessions(storeWith(t, "", nil), testCookie)(RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(1, 2)
	now := time.Now()
	l.now = func() time.Time { return now }

	if !l.Allow("1.1.1.1") || !l.Allow("1.1.1.1") {
		t.Fatalf("burst should be allowed")
	}
	if l.Allow("1.1.1.1") {
		t.Errorf("third attempt within the same instant should be throttled")
	}
	if !l.Allow("2.2.2.2") {
		t.Errorf("other addresses have their own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("1.1.1.1") {
		t.Errorf("token should refill after a second")
	}
}

func TestRateLimitOnlyThrottlesPosts(t *testing.T) {
	l := NewIPRateLimiter(0.001, 1)
	h := l.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	post := func() int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if post() != http.StatusOK {
		t.Fatalf("first post should pass")
	}
	if post() != http.StatusTooManyRequests {
		t.Errorf("second post should be throttled")
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET should not be throttled, got %d", rec.Code)
	}
}

func TestRateLimitIgnoresSpoofedForwarding(t *testing.T) {
	l := NewIPRateLimiter(0.001, 1)
	var chain http.Handler = l.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	chain = chimiddleware.RealIP(chain)
	chain = ClientAddr(nil)(chain)

	var throttled int
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		req.Header.Set("X-Real-IP", "198.51.100."+strconv.Itoa(i))
		chain.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			throttled++
		}
	}
	if throttled != 4 {
		t.Errorf("rotating forwarding headers must not reset the bucket, %d of 4 throttled", throttled)
	}
}

func TestClientAddrResolution(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name   string
		remote string
		xff    string
		realIP string
		want   string
	}{
		{"untrusted peer", "203.0.113.9:4000", "198.51.100.1", "", "203.0.113.9"},
		{"trusted proxy", "10.0.0.2:80", "198.51.100.1", "", "198.51.100.1"},
		{"client prepends fake hop", "10.0.0.2:80", "1.2.3.4, 198.51.100.1", "", "198.51.100.1"},
		{"proxy chain", "10.0.0.2:80", "198.51.100.1, 10.0.0.3", "", "198.51.100.1"},
		{"real ip header", "10.0.0.2:80", "", "198.51.100.7", "198.51.100.7"},
		{"garbage hop", "10.0.0.2:80", "nonsense", "", "10.0.0.2"},
		{"no headers", "10.0.0.2:80", "", "", "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := ClientAddr(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ClientAddrFrom(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRecoveryAnswers500(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestRecoveryKeepsStartedResponse(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("partial"))
		panic("late failure")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusAccepted || rec.Body.String() != "partial" {
		t.Errorf("started response should be left alone, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRecoveryRepanicsOnAbort(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
