package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/otcheredev/hms-web/internal/models"
)

var (
	ErrRoleNotAllowed  = errors.New("role not allowed")
	ErrMissingUserData = errors.New("username, password and full name are required")
)

// RoleOptions lists the roles actor may assign to a new user
func RoleOptions(actor models.Role) []models.Role {
	switch actor {
	case models.RoleSuperAdmin:
		return append([]models.Role{}, models.Roles...)
	case models.RoleAdmin:
		return []models.Role{models.RoleDoctor, models.RoleStaff}
	}
	return nil
}

// PrepareRegistration validates a new user request and pins its tenant
func PrepareRegistration(actor *models.Session, req *models.RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Username == "" || req.Password == "" || req.FullName == "" {
		return ErrMissingUserData
	}

	role := models.ParseRole(req.Role)
	allowed := false
	for _, r := range RoleOptions(actor.Role) {
		if r == role {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %q", ErrRoleNotAllowed, req.Role)
	}
	req.Role = role.String()
	req.CID = ResolveTenant(actor, req.CID)
	return nil
}
