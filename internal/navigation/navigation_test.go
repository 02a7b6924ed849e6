package navigation

import (
	"testing"

	"github.com/otcheredev/hms-web/internal/models"
)

func TestEvaluateLoadingNeverRedirects(t *testing.T) {
	sessions := []*models.Session{nil, {Role: models.RoleAdmin}, {Role: models.RoleDoctor}}
	for _, r := range Routes {
		for _, s := range sessions {
			d := Evaluate(false, s, r.Required)
			if d.State != StateLoading || d.Redirect != "" {
				t.Errorf("%s: expected loading without redirect, got %+v", r.Path, d)
			}
		}
	}
}

func TestEvaluateWithoutSessionGoesToLogin(t *testing.T) {
	for _, r := range Routes {
		d := Evaluate(true, nil, r.Required)
		if d.State != StateUnauthenticated || d.Redirect != PathLogin {
			t.Errorf("%s: expected redirect to login, got %+v", r.Path, d)
		}
	}
}

func TestEvaluateRoleMatrix(t *testing.T) {
	for _, r := range Routes {
		for _, role := range models.Roles {
			d := Evaluate(true, &models.Session{Role: role}, r.Required)
			allowed := !r.Required.Declared() || r.Required.Has(role)
			switch {
			case allowed && d.State != StateAuthorized:
				t.Errorf("%s as %s: expected authorized, got %s", r.Path, role, d.State)
			case !allowed && (d.State != StateForbidden || d.Redirect != PathDashboard):
				t.Errorf("%s as %s: expected forbidden to dashboard, got %+v", r.Path, role, d)
			}
		}
	}
}

func TestRouteTable(t *testing.T) {
	cases := []struct {
		path    string
		role    models.Role
		allowed bool
	}{
		{"/hospitals", models.RoleStaff, false},
		{"/hospitals", models.RoleSuperAdmin, true},
		{"/patients", models.RoleSuperAdmin, false},
		{"/patients/4/delete", models.RoleStaff, true},
		{"/medicines", models.RoleDoctor, false},
		{"/users", models.RoleAdmin, true},
		{"/appointments", models.RoleDoctor, true},
		{"/dashboard", models.RoleStaff, true},
	}
	for _, tc := range cases {
		d := Evaluate(true, &models.Session{Role: tc.role}, Required(tc.path))
		if (d.State == StateAuthorized) != tc.allowed {
			t.Errorf("%s as %s: got %s", tc.path, tc.role, d.State)
		}
	}
}

func TestMenuOrder(t *testing.T) {
	want := map[models.Role][]string{
		models.RoleSuperAdmin: {"Global Stats", "Hospitals", "User Management"},
		models.RoleAdmin:      {"Dashboard", "User Management", "Doctors", "Patients", "Staff", "Appointments", "Medicine Stock"},
		models.RoleDoctor:     {"Dashboard", "My Appointments"},
		models.RoleStaff:      {"Dashboard", "Patients", "Appointments", "Medicine Stock"},
	}
	for role, labels := range want {
		got := For(role)
		if len(got) != len(labels) {
			t.Fatalf("%s: expected %d entries, got %d", role, len(labels), len(got))
		}
		for i, label := range labels {
			if got[i].Label != label {
				t.Errorf("%s[%d]: expected %q, got %q", role, i, label, got[i].Label)
			}
		}
	}
}

func TestMenuUnknownRoleIsEmpty(t *testing.T) {
	for _, role := range []models.Role{models.RoleUnknown, models.RoleCount, 200} {
		if got := For(role); got == nil || len(got) != 0 {
			t.Errorf("role %d: expected empty menu, got %v", role, got)
		}
	}
}

func TestMenuEntriesAreReachable(t *testing.T) {
	for _, role := range models.Roles {
		for _, e := range For(role) {
			if d := Evaluate(true, &models.Session{Role: role}, Required(e.Path)); d.State != StateAuthorized {
				t.Errorf("%s can see %q but the gate says %s", role, e.Label, d.State)
			}
		}
	}
}
