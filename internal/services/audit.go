package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/otcheredev/hms-web/internal/models"
	"github.com/otcheredev/hms-web/internal/session"
	"github.com/rs/zerolog/log"
)

// AuditStore persists audit entries
type AuditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	GetByTenantID(ctx context.Context, tenantID string, limit, offset int) ([]models.AuditLog, error)
}

type clientIPKey struct{}

// WithClientIP records the caller's address for audit entries
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// AuditRecorder writes audit entries in the background. With no store it does nothing.
type AuditRecorder struct {
	store   AuditStore
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAuditRecorder creates a recorder; store may be nil when auditing is disabled
func NewAuditRecorder(store AuditStore) *AuditRecorder {
	return &AuditRecorder{store: store, timeout: 5 * time.Second}
}

// Enabled reports whether entries are persisted
func (r *AuditRecorder) Enabled() bool {
	return r != nil && r.store != nil
}

// OnSessionEvent records session transitions; it is registered as a controller listener
func (r *AuditRecorder) OnSessionEvent(ctx context.Context, ev session.Event) {
	var action string
	switch ev.Kind {
	case session.EventLogin:
		action = models.ActionLogin
	case session.EventLogout:
		action = models.ActionLogout
	case session.EventExpired:
		action = models.ActionExpired
	case session.EventThemeChanged:
		action = models.ActionThemeChange
	default:
		return
	}
	r.Record(ctx, ev.Session, action, "session", "", nil)
}

// Record stores one audit entry for actor. err marks the action as failed.
func (r *AuditRecorder) Record(ctx context.Context, actor *models.Session, action, resourceType, resourceID string, err error) {
	if !r.Enabled() || actor == nil {
		return
	}

	entry := &models.AuditLog{
		TenantID:     actor.CID,
		Username:     actor.Username,
		Role:         actor.Role.String(),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    clientIP(ctx),
		Status:       "success",
	}
	if err != nil {
		entry.Status = "failure"
		entry.ErrorMessage = err.Error()
	}

	bg := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		wctx, cancel := context.WithTimeout(bg, r.timeout)
		defer cancel()
		if err := r.store.Create(wctx, entry); err != nil {
			log.Warn().Err(err).Str("action", action).Msg("Failed to write audit log")
		}
	}()
}

// RecordID is Record for numeric resource ids
func (r *AuditRecorder) RecordID(ctx context.Context, actor *models.Session, action, resourceType string, id int64, err error) {
	r.Record(ctx, actor, action, resourceType, strconv.FormatInt(id, 10), err)
}

// ErrAuditDisabled is returned by Recent when no store is configured
var ErrAuditDisabled = errors.New("audit log disabled")

// Recent returns the latest entries for a tenant
func (r *AuditRecorder) Recent(ctx context.Context, cid string, limit int) ([]models.AuditLog, error) {
	if !r.Enabled() {
		return nil, ErrAuditDisabled
	}
	return r.store.GetByTenantID(ctx, cid, limit, 0)
}

// Wait blocks until pending entries are written
func (r *AuditRecorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}
