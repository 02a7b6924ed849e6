package services

import (
	"strings"

	"github.com/otcheredev/hms-web/internal/models"
)

// ResolveTenant returns the cid a write is attached to. Only SUPER_ADMIN
// may choose; everybody else writes into their own tenant.
func ResolveTenant(actor *models.Session, chosen string) string {
	if actor == nil {
		return ""
	}
	chosen = strings.TrimSpace(chosen)
	if actor.IsSuperAdmin() && chosen != "" {
		return chosen
	}
	return actor.CID
}

// ListScope returns the cid a read is filtered by. "" means every tenant,
// which only SUPER_ADMIN can get.
func ListScope(actor *models.Session, filter string) string {
	if actor == nil {
		return ""
	}
	if actor.IsSuperAdmin() {
		return strings.TrimSpace(filter)
	}
	return actor.CID
}

// CanAccess reports whether actor may see a record owned by cid
func CanAccess(actor *models.Session, cid string) bool {
	if actor == nil {
		return false
	}
	return actor.IsSuperAdmin() || actor.CID == cid
}
