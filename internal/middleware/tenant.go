package middleware

import (
	"context"
	"net/http"

	"github.com/otcheredev/hms-web/internal/services"
	"github.com/otcheredev/hms-web/internal/session"
)

type contextKey string

const TenantIDKey contextKey = "tenant_id"

// TenantID resolves the tenant a request reads from. SUPER_ADMIN may narrow
// it with ?cid=, everybody else is pinned to their own tenant.
func TenantID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := session.FromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		tenantID := services.ListScope(s, r.URL.Query().Get("cid"))
		ctx := context.WithValue(r.Context(), TenantIDKey, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetTenantID extracts the tenant scope from context. "" means all tenants.
func GetTenantID(ctx context.Context) (string, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(string)
	return tenantID, ok
}
