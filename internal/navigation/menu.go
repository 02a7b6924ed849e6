package navigation

import (
	"strings"

	"github.com/otcheredev/hms-web/internal/models"
)

// Entry is one sidebar link
type Entry struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

var menus = [models.RoleCount][]Entry{
	models.RoleSuperAdmin: {
		{Label: "Global Stats", Path: PathDashboard},
		{Label: "Hospitals", Path: PathHospitals},
		{Label: "User Management", Path: PathUsers},
	},
	models.RoleAdmin: {
		{Label: "Dashboard", Path: PathDashboard},
		{Label: "User Management", Path: PathUsers},
		{Label: "Doctors", Path: PathDoctors},
		{Label: "Patients", Path: PathPatients},
		{Label: "Staff", Path: PathStaff},
		{Label: "Appointments", Path: PathAppointments},
		{Label: "Medicine Stock", Path: PathMedicines},
	},
	models.RoleDoctor: {
		{Label: "Dashboard", Path: PathDashboard},
		{Label: "My Appointments", Path: PathAppointments},
	},
	models.RoleStaff: {
		{Label: "Dashboard", Path: PathDashboard},
		{Label: "Patients", Path: PathPatients},
		{Label: "Appointments", Path: PathAppointments},
		{Label: "Medicine Stock", Path: PathMedicines},
	},
}

// For returns the sidebar entries for role, in display order.
// Unknown roles get an empty menu. The result is a copy.
func For(role models.Role) []Entry {
	if role >= models.RoleCount {
		return []Entry{}
	}
	return append([]Entry{}, menus[role]...)
}

// Active reports whether e is the entry for the current path
func (e Entry) Active(current string) bool {
	return current == e.Path || strings.HasPrefix(current, e.Path+"/")
}
