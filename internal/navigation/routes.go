package navigation

import (
	"strings"

	"github.com/otcheredev/hms-web/internal/models"
)

// Screen paths
const (
	PathLogin        = "/login"
	PathDashboard    = "/dashboard"
	PathHospitals    = "/hospitals"
	PathDoctors      = "/doctors"
	PathPatients     = "/patients"
	PathStaff        = "/staff"
	PathMedicines    = "/medicines"
	PathAppointments = "/appointments"
	PathUsers        = "/users"
)

// Route is a protected screen and the roles allowed to open it.
// An undeclared Required set admits any authenticated session.
type Route struct {
	Path     string
	Required models.RoleSet
}

var (
	adminOnly   = models.RolesOf(models.RoleSuperAdmin, models.RoleAdmin)
	tenantStaff = models.RolesOf(models.RoleAdmin, models.RoleStaff)
)

// Routes lists every protected screen
var Routes = []Route{
	{Path: PathDashboard},
	{Path: PathHospitals, Required: adminOnly},
	{Path: PathDoctors, Required: adminOnly},
	{Path: PathPatients, Required: tenantStaff},
	{Path: PathStaff, Required: adminOnly},
	{Path: PathMedicines, Required: tenantStaff},
	{Path: PathAppointments},
	{Path: PathUsers, Required: adminOnly},
}

// Lookup finds the route owning path, matching sub-paths such as /doctors/3/delete
func Lookup(path string) (Route, bool) {
	for _, r := range Routes {
		if path == r.Path || strings.HasPrefix(path, r.Path+"/") {
			return r, true
		}
	}
	return Route{}, false
}

// Required returns the role set guarding path
func Required(path string) models.RoleSet {
	r, _ := Lookup(path)
	return r.Required
}
